package repository

import (
	"github.com/quizfunnel/leadsync/internal/domain/lead"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/postgres"
	postgresRepo "github.com/quizfunnel/leadsync/internal/repository/postgres"
)

func NewLeadRepository(client postgres.IClient, logger *logger.Logger) lead.Repository {
	return postgresRepo.NewLeadRepository(client, logger)
}

package service

import (
	"github.com/quizfunnel/leadsync/internal/testutil"
)

// newTestServiceParams wires ServiceParams to the suite's fakes
func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		stores.LeadRepo,
		s.GetPlans(),
		stores.Identity,
		stores.Payment,
		stores.Entitlement,
		stores.Granter,
		stores.WebhookPublisher,
		stores.ProcessedEventIDs,
	)
}

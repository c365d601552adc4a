// Package mocks provides hand-written mocks of the service interfaces for
// handler and middleware tests.
//
// Each mock has a function field per method. When the field is nil the
// method returns the mock's default values instead:
//
//	svc := &mocks.MockEnrichmentService{
//	    GetRunFn: func(ctx context.Context, id uuid.UUID) (service.RunStatus, error) {
//	        return service.RunStatus{}, service.ErrRunNotFound
//	    },
//	}
package mocks

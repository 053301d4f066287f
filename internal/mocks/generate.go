// Package mocks provides gomock implementations of the auth ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	refresher := mocks.NewMockTokenRefresher(ctrl)
//	refresher.EXPECT().Refresh(gomock.Any(), "rt").Return(domainauth.TokenResponse{}, errBoom)
package mocks

// TokenRefresher: Refresh
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_refresher_mock.go github.com/fiberq/fiberq-web/internal/ports TokenRefresher

// LoginRecorder: RecordLogin
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=login_recorder_mock.go github.com/fiberq/fiberq-web/internal/ports LoginRecorder

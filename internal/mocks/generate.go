// Package mocks provides mock implementations for testing the Knowlio web app.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port and repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	idp := mocks.NewMockIdentityProvider(ctrl)
//	idp.EXPECT().SignIn(gomock.Any(), "jane@example.com", "pw").Return(identity, nil)
package mocks

// Generate mock for IdentityProvider interface from internal/ports package.
// This creates MockIdentityProvider with methods for all IdentityProvider interface methods:
// Begin, Exchange, SignIn, SignUp, ConfirmSignUp, SignOut, FetchAttributes
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_provider_mock.go github.com/target/knowlio-web/internal/ports IdentityProvider

// Generate mock for Navigator interface from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=navigator_mock.go github.com/target/knowlio-web/internal/ports Navigator

// Generate mocks for the repository interfaces from internal/core package.
// This creates MockContactRepository (Create, List) and MockContentRepository
// (List, Count, GetByID, Delete, Seed).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=repository_mock.go github.com/target/knowlio-web/internal/core ContactRepository,ContentRepository

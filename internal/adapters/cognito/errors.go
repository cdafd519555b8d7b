package cognito

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	apperrors "github.com/target/knowlio-web/internal/errors"
)

var errChallenge = apperrors.Authentication("Additional verification is required. Please use the hosted sign-in page.", nil)

// mapError converts Cognito API errors into the application taxonomy.
// Anything that is not a service response is treated as a network failure.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var (
		notAuthorized *types.NotAuthorizedException
		userNotFound  *types.UserNotFoundException
		notConfirmed  *types.UserNotConfirmedException
		userExists    *types.UsernameExistsException
		badPassword   *types.InvalidPasswordException
		codeMismatch  *types.CodeMismatchException
		codeExpired   *types.ExpiredCodeException
		badParameter  *types.InvalidParameterException
		tooMany       *types.TooManyRequestsException
	)

	switch {
	case errors.As(err, &notAuthorized), errors.As(err, &userNotFound):
		return apperrors.Authentication("Incorrect username or password.", err)
	case errors.As(err, &notConfirmed):
		return apperrors.Authentication("Please confirm your account before signing in.", err)
	case errors.As(err, &userExists):
		return apperrors.Authentication("An account with this email already exists.", err)
	case errors.As(err, &badPassword):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, badPassword.ErrorMessage())
	case errors.As(err, &codeMismatch), errors.As(err, &codeExpired):
		return apperrors.Authentication("Invalid or expired confirmation code.", err)
	case errors.As(err, &badParameter):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, badParameter.ErrorMessage())
	case errors.As(err, &tooMany):
		return apperrors.Authentication("Too many attempts. Please try again later.", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apperrors.Authentication(
			apperrors.MsgAuthenticationFailed,
			fmt.Errorf("cognito %s: %s: %w", op, apiErr.ErrorCode(), err),
		)
	}
	return apperrors.Network(fmt.Errorf("cognito %s: %w", op, err))
}

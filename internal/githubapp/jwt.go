package githubapp

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuedAtBackdateConstant              = 60 * time.Second
	expirationWindowConstant              = 600 * time.Second
	claimIssuedAtConstant                 = "iat"
	claimExpirationConstant               = "exp"
	claimIssuerConstant                   = "iss"
	appIDFieldNameConstant                = "app_id"
	privateKeyPathFieldNameConstant       = "private_key_path"
	requiredValueMessageConstant          = "value required"
	invalidInputErrorTemplateConstant     = "%s: %s"
	privateKeyReadErrorTemplateConstant   = "unable to read private key %s: %s"
	privateKeyParseErrorTemplateConstant  = "unable to parse private key %s: %s"
	assertionSigningErrorTemplateConstant = "unable to sign app assertion: %w"
)

// Credentials identify a GitHub App and the location of its PEM encoded private key.
type Credentials struct {
	AppID          string
	PrivateKeyPath string
}

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// Clock reports the current time.
type Clock func() time.Time

// InvalidInputError surfaces missing credential values.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// PrivateKeyReadError reports a private key file that could not be read.
type PrivateKeyReadError struct {
	Path  string
	Cause error
}

// Error describes the read failure.
func (readError PrivateKeyReadError) Error() string {
	return fmt.Sprintf(privateKeyReadErrorTemplateConstant, readError.Path, readError.Cause)
}

// Unwrap exposes the underlying file system error.
func (readError PrivateKeyReadError) Unwrap() error {
	return readError.Cause
}

// PrivateKeyParseError reports a private key file that does not hold an RSA PEM key.
type PrivateKeyParseError struct {
	Path  string
	Cause error
}

// Error describes the parse failure.
func (parseError PrivateKeyParseError) Error() string {
	return fmt.Sprintf(privateKeyParseErrorTemplateConstant, parseError.Path, parseError.Cause)
}

// Unwrap exposes the underlying parse error.
func (parseError PrivateKeyParseError) Unwrap() error {
	return parseError.Cause
}

// AssertionSigner produces RS256 JSON Web Tokens identifying a GitHub App.
type AssertionSigner struct {
	fileReader FileReader
	clock      Clock
}

// NewAssertionSigner constructs a signer; nil collaborators fall back to os.ReadFile and time.Now.
func NewAssertionSigner(fileReader FileReader, clock Clock) *AssertionSigner {
	resolvedFileReader := fileReader
	if resolvedFileReader == nil {
		resolvedFileReader = os.ReadFile
	}

	resolvedClock := clock
	if resolvedClock == nil {
		resolvedClock = time.Now
	}

	return &AssertionSigner{fileReader: resolvedFileReader, clock: resolvedClock}
}

// SignJWT reads the private key from disk and signs a fresh assertion.
// The token is issued 60 seconds in the past and expires 600 seconds in the future.
func (signer *AssertionSigner) SignJWT(credentials Credentials) (string, error) {
	appID := strings.TrimSpace(credentials.AppID)
	if len(appID) == 0 {
		return "", InvalidInputError{FieldName: appIDFieldNameConstant, Message: requiredValueMessageConstant}
	}

	privateKeyPath := strings.TrimSpace(credentials.PrivateKeyPath)
	if len(privateKeyPath) == 0 {
		return "", InvalidInputError{FieldName: privateKeyPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	privateKeyContents, readError := signer.fileReader(privateKeyPath)
	if readError != nil {
		return "", PrivateKeyReadError{Path: privateKeyPath, Cause: readError}
	}

	privateKey, parseError := jwt.ParseRSAPrivateKeyFromPEM(privateKeyContents)
	if parseError != nil {
		return "", PrivateKeyParseError{Path: privateKeyPath, Cause: parseError}
	}

	now := signer.clock()
	claims := jwt.MapClaims{
		claimIssuedAtConstant:   now.Add(-issuedAtBackdateConstant).Unix(),
		claimExpirationConstant: now.Add(expirationWindowConstant).Unix(),
		claimIssuerConstant:     appID,
	}

	signedToken, signingError := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if signingError != nil {
		return "", fmt.Errorf(assertionSigningErrorTemplateConstant, signingError)
	}

	return signedToken, nil
}

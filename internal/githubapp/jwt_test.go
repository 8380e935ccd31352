package githubapp_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ghapp-pr/internal/githubapp"
)

const (
	testAppIDConstant              = "123456"
	testPrivateKeyFileNameConstant = "app.private-key.pem"
	testRSAKeyBitsConstant         = 2048
)

var testFixedTime = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

func writePrivateKey(testInstance *testing.T) (string, *rsa.PrivateKey) {
	testInstance.Helper()

	privateKey, generationError := rsa.GenerateKey(rand.Reader, testRSAKeyBitsConstant)
	require.NoError(testInstance, generationError)

	encodedKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)})
	privateKeyPath := filepath.Join(testInstance.TempDir(), testPrivateKeyFileNameConstant)
	require.NoError(testInstance, os.WriteFile(privateKeyPath, encodedKey, 0o600))

	return privateKeyPath, privateKey
}

func parseAssertion(testInstance *testing.T, signedAssertion string, privateKey *rsa.PrivateKey) jwt.MapClaims {
	testInstance.Helper()

	claims := jwt.MapClaims{}
	parsedToken, parseError := jwt.ParseWithClaims(
		signedAssertion,
		claims,
		func(*jwt.Token) (any, error) { return &privateKey.PublicKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	require.NoError(testInstance, parseError)
	require.True(testInstance, parsedToken.Valid)
	return claims
}

func TestAssertionSignerSignsClaims(testInstance *testing.T) {
	privateKeyPath, privateKey := writePrivateKey(testInstance)
	signer := githubapp.NewAssertionSigner(nil, func() time.Time { return testFixedTime })

	signedAssertion, signingError := signer.SignJWT(githubapp.Credentials{AppID: testAppIDConstant, PrivateKeyPath: privateKeyPath})
	require.NoError(testInstance, signingError)

	claims := parseAssertion(testInstance, signedAssertion, privateKey)

	issuedAt, issuedAtError := claims.GetIssuedAt()
	require.NoError(testInstance, issuedAtError)
	expiresAt, expiresAtError := claims.GetExpirationTime()
	require.NoError(testInstance, expiresAtError)
	issuer, issuerError := claims.GetIssuer()
	require.NoError(testInstance, issuerError)

	require.Equal(testInstance, testFixedTime.Unix()-60, issuedAt.Unix())
	require.Equal(testInstance, testFixedTime.Unix()+600, expiresAt.Unix())
	require.Equal(testInstance, int64(660), expiresAt.Unix()-issuedAt.Unix())
	require.Equal(testInstance, testAppIDConstant, issuer)
}

func TestAssertionSignerReadsKeyOnEveryCall(testInstance *testing.T) {
	privateKeyPath, _ := writePrivateKey(testInstance)
	contents, readError := os.ReadFile(privateKeyPath)
	require.NoError(testInstance, readError)

	readCount := 0
	signer := githubapp.NewAssertionSigner(func(path string) ([]byte, error) {
		readCount++
		return contents, nil
	}, nil)

	credentials := githubapp.Credentials{AppID: testAppIDConstant, PrivateKeyPath: privateKeyPath}
	_, firstError := signer.SignJWT(credentials)
	require.NoError(testInstance, firstError)
	_, secondError := signer.SignJWT(credentials)
	require.NoError(testInstance, secondError)

	require.Equal(testInstance, 2, readCount)
}

func TestAssertionSignerFailures(testInstance *testing.T) {
	malformedKeyPath := filepath.Join(testInstance.TempDir(), "malformed.pem")
	require.NoError(testInstance, os.WriteFile(malformedKeyPath, []byte("not a key"), 0o600))

	testCases := []struct {
		name        string
		credentials githubapp.Credentials
		verify      func(testInstance *testing.T, signingError error)
	}{
		{
			name:        "missing_key_file",
			credentials: githubapp.Credentials{AppID: testAppIDConstant, PrivateKeyPath: filepath.Join(testInstance.TempDir(), "absent.pem")},
			verify: func(testInstance *testing.T, signingError error) {
				var readError githubapp.PrivateKeyReadError
				require.ErrorAs(testInstance, signingError, &readError)
				require.True(testInstance, errors.Is(signingError, os.ErrNotExist))
			},
		},
		{
			name:        "malformed_key_file",
			credentials: githubapp.Credentials{AppID: testAppIDConstant, PrivateKeyPath: malformedKeyPath},
			verify: func(testInstance *testing.T, signingError error) {
				require.IsType(testInstance, githubapp.PrivateKeyParseError{}, signingError)
			},
		},
		{
			name:        "missing_app_id",
			credentials: githubapp.Credentials{PrivateKeyPath: malformedKeyPath},
			verify: func(testInstance *testing.T, signingError error) {
				require.IsType(testInstance, githubapp.InvalidInputError{}, signingError)
			},
		},
		{
			name:        "missing_key_path",
			credentials: githubapp.Credentials{AppID: testAppIDConstant},
			verify: func(testInstance *testing.T, signingError error) {
				require.IsType(testInstance, githubapp.InvalidInputError{}, signingError)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			signer := githubapp.NewAssertionSigner(nil, nil)
			signedAssertion, signingError := signer.SignJWT(testCase.credentials)
			require.Error(testInstance, signingError)
			require.Empty(testInstance, signedAssertion)
			testCase.verify(testInstance, signingError)
		})
	}
}

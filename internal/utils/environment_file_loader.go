package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultEnvironmentFileName is loaded from the working directory when no file is named explicitly.
	DefaultEnvironmentFileName = ".env"

	environmentFileLoadErrorTemplateConstant = "failed to load environment file %s: %w"
)

// LoadEnvironmentFile exports the variables declared in a dotenv file into the process environment.
// Variables that are already set keep their values. An empty filePath selects DefaultEnvironmentFileName
// and a missing default file is not an error. The path that was loaded is returned, or an empty string.
func LoadEnvironmentFile(filePath string) (string, error) {
	resolvedFilePath := strings.TrimSpace(filePath)
	if len(resolvedFilePath) == 0 {
		if _, statError := os.Stat(DefaultEnvironmentFileName); errors.Is(statError, os.ErrNotExist) {
			return "", nil
		}
		resolvedFilePath = DefaultEnvironmentFileName
	}

	if loadError := godotenv.Load(resolvedFilePath); loadError != nil {
		return "", fmt.Errorf(environmentFileLoadErrorTemplateConstant, resolvedFilePath, loadError)
	}
	return resolvedFilePath, nil
}

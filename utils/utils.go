package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func Ternary(cond bool, a, b any) any {
	if cond {
		return a
	}
	return b
}

// ArrayContains searches an array for the first element satisfying f.
func ArrayContains[T any](array []T, f func(elem T) bool) (int, bool) {
	for index, elem := range array {
		if f(elem) {
			return index, true
		}
	}
	return -1, false
}

func ForEach[T any](array []T, f func(elem T) error) error {
	for _, elem := range array {
		if err := f(elem); err != nil {
			return err
		}
	}
	return nil
}

func IsValidSubcommand(commands []*cobra.Command, subcommand string) bool {
	_, found := ArrayContains(commands, func(cmd *cobra.Command) bool {
		return cmd.Use == subcommand
	})
	return found
}

// UnmarshalFile reads a JSON file into dest and optionally validates the
// result via its Validate method.
func UnmarshalFile(filePath string, dest any, validate bool) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %s", filePath, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal file %s: %s", filePath, err)
	}
	if validate {
		if validator, yes := dest.(interface{ Validate() error }); yes {
			if err := validator.Validate(); err != nil {
				return fmt.Errorf("failed to validate file %s: %s", filePath, err)
			}
		}
	}
	return nil
}

// WriteJSONFile writes v as indented JSON, creating parent directories.
func WriteJSONFile(filePath string, v any) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0o644)
}

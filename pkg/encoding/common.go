package encoding

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadAndUnmarshal provides the underlying loading and unmarshaling
// functionality for the encoding package. It reads the data at the specified
// path and then invokes the specified unmarshaling callback (usually a
// closure) to decode the data.
func LoadAndUnmarshal(path string, unmarshal func([]byte) error) error {
	// Grab the file contents.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("unable to load file: %w", err)
	}

	// Perform the unmarshaling.
	if err := unmarshal(data); err != nil {
		return fmt.Errorf("unable to unmarshal data: %w", err)
	}

	// Success.
	return nil
}

// MarshalAndSave provides the underlying marshaling and saving functionality
// for the encoding package. It invokes the specified marshaling callback
// (usually a closure) and writes the result atomically to the specified
// path, via a temporary file in the same directory followed by a rename, so
// that a concurrent reader never observes a partially written file.
func MarshalAndSave(path string, marshal func() ([]byte, error)) error {
	// Marshal the message.
	data, err := marshal()
	if err != nil {
		return fmt.Errorf("unable to marshal message: %w", err)
	}

	// Write to a temporary file in the same directory so that the final
	// rename is atomic (same filesystem).
	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, ".encoding-tmp-")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer os.Remove(temporary.Name())

	if err := temporary.Chmod(0600); err != nil {
		temporary.Close()
		return fmt.Errorf("unable to set temporary file permissions: %w", err)
	}

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("unable to write message data: %w", err)
	}

	if err := temporary.Close(); err != nil {
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("unable to rename temporary file into place: %w", err)
	}

	// Success.
	return nil
}

package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFromFile reads messages from a JSON or YAML file, so that a run can start from
// a saved conversation.
func LoadFromFile(filename string) ([]*Message, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return loadFromJSONFile(filename)
	case ".yaml", ".yml":
		return loadFromYAMLFile(filename)
	default:
		return nil, errors.Errorf("unsupported conversation file %s", filename)
	}
}

func loadFromYAMLFile(filename string) ([]*Message, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	var messages []*Message
	err = yaml.NewDecoder(f).Decode(&messages)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", filename)
	}

	return messages, nil
}

func loadFromJSONFile(filename string) ([]*Message, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	var messages []*Message
	err = json.NewDecoder(f).Decode(&messages)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", filename)
	}

	return messages, nil
}

// SaveToFile writes messages as indented JSON.
func SaveToFile(filename string, messages []*Message) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(messages)
}

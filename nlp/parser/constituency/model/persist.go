package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Save writes m with gob.
func (m *Recursive) Save(writer io.Writer) error {
	if err := gob.NewEncoder(writer).Encode(m); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	return nil
}

// Load reads a model written by Save and checks its shape.
func Load(reader io.Reader) (*Recursive, error) {
	m := &Recursive{}
	if err := gob.NewDecoder(reader).Decode(m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	m.LabelSet.Frozen = true
	m.Words.Frozen = true
	return m, nil
}

func WriteModel(file string, m *Recursive) error {
	fObj, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := m.Save(fObj); err != nil {
		fObj.Close()
		return err
	}
	return fObj.Close()
}

func ReadModel(file string) (*Recursive, error) {
	fObj, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fObj.Close()
	m, err := Load(fObj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return m, nil
}

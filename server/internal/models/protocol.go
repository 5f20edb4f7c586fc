// protocol.go
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskDefinition is one scenario of the test protocol.
type TaskDefinition struct {
	ID          int    `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Optional    bool   `yaml:"optional" json:"optional"`
}

// ProtocolSection is a free-form block of the protocol document (intro, consent, debrief...).
type ProtocolSection struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
	Order   int    `yaml:"order" json:"order"`
}

// Protocol holds the ordered tasks and sections of a test protocol.
type Protocol struct {
	Tasks     []TaskDefinition  `yaml:"tasks" json:"tasks"`
	Sections  []ProtocolSection `yaml:"sections" json:"sections"`
	UpdatedAt time.Time         `yaml:"-" json:"updatedAt"`
}

// LoadProtocol reads and parses the protocol.yaml file
func LoadProtocol(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol file: %w", err)
	}

	var protocol Protocol
	err = yaml.Unmarshal(data, &protocol)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal protocol YAML: %w", err)
	}

	seen := make(map[int]bool, len(protocol.Tasks))
	for _, t := range protocol.Tasks {
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate task id %d in protocol", t.ID)
		}
		seen[t.ID] = true
	}

	return &protocol, nil
}

// FindTask returns the definition with the given id.
func FindTask(tasks []TaskDefinition, id int) (TaskDefinition, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskDefinition{}, false
}

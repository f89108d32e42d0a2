package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhin-exe/weave/pkg/conditionals"
	"github.com/jhin-exe/weave/pkg/effects"
	"github.com/jhin-exe/weave/pkg/state"
)

// DefaultStartSceneID is the start scene of a new project.
const DefaultStartSceneID = "start"

var defaultTheme = json.RawMessage(`{"layout":"document","bg":"#111111","text":"#eeeeee","accent":"#ffffff","border":"#333333","font":"Inter","customCss":""}`)

// New returns the document a fresh authoring session starts from: one
// start scene with a single choice that loops back to itself.
func New() *Project {
	return &Project{
		Meta: Meta{
			Title:   "Untitled Story",
			Author:  "Anonymous",
			Created: time.Now().UnixMilli(),
			Version: "1.0.0",
		},
		Config: Config{
			StartSceneID: DefaultStartSceneID,
		},
		Theme:     append(json.RawMessage(nil), defaultTheme...),
		Variables: state.Vars{},
		Items:     Items{},
		Scenes: map[string]*Scene{
			DefaultStartSceneID: {
				ID:   DefaultStartSceneID,
				Text: "The story begins here...",
				Choices: []Choice{
					newChoice("Continue...", DefaultStartSceneID),
				},
			},
		},
	}
}

// Parse decodes a project document and brings older documents up to date:
// choices without an ID get one, scenes without an ID take their map key,
// and missing collections become empty.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	if p.Scenes == nil {
		return nil, errors.New("failed to parse project: no scenes")
	}
	p.migrate()
	return &p, nil
}

// Load reads and parses a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the project as indented JSON.
func (p *Project) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}
	return data, nil
}

// Save writes the project to path.
func (p *Project) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName is the name the project is exported under.
func (p *Project) FileName() string {
	name := whitespaceRun.ReplaceAllString(p.Meta.Title, "_")
	if name == "" {
		name = "project"
	}
	return name + ".json"
}

func (p *Project) migrate() {
	if p.Variables == nil {
		p.Variables = state.Vars{}
	}
	if p.Items == nil {
		p.Items = Items{}
	}
	for id, s := range p.Scenes {
		if s == nil {
			s = &Scene{}
			p.Scenes[id] = s
		}
		if s.ID == "" {
			s.ID = id
		}
		if s.Choices == nil {
			s.Choices = []Choice{}
		}
		for i := range s.Choices {
			c := &s.Choices[i]
			if c.ID == "" {
				c.ID = GenerateID("ch")
			}
			if c.LogicGroups == nil {
				c.LogicGroups = conditionals.LogicGroups{}
			}
			if c.Effects == nil {
				c.Effects = []effects.Effect{}
			}
		}
	}
}

// GenerateID returns a short random identifier such as "scene_3f9a1c2b7d".
func GenerateID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

func newChoice(text, target string) Choice {
	return Choice{
		ID:          GenerateID("ch"),
		Text:        text,
		Target:      target,
		LogicGroups: conditionals.LogicGroups{},
		Effects:     []effects.Effect{},
	}
}

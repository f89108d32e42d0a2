package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSceneNotFound  = errors.New("scene not found")
	ErrSceneExists    = errors.New("scene ID already exists")
	ErrInvalidSceneID = errors.New("scene ID must not be empty")
	ErrLastScene      = errors.New("cannot delete the last scene")
	ErrStartScene     = errors.New("cannot delete the start scene")
	ErrChoiceNotFound = errors.New("choice not found")
)

// AddScene creates an empty scene with a generated ID and returns the ID.
func (p *Project) AddScene() string {
	id := GenerateID("scene")
	if p.Scenes == nil {
		p.Scenes = make(map[string]*Scene)
	}
	p.Scenes[id] = &Scene{
		ID:      id,
		Text:    "...",
		Choices: []Choice{},
	}
	return id
}

// targetRef locates a choice by scene and index.
type targetRef struct {
	scene string
	index int
}

// RenameScene changes a scene's ID and rewrites every choice that leads to
// it, as well as the start scene setting. References are collected first
// and rewritten afterwards so the scene map is never re-keyed mid-walk.
func (p *Project) RenameScene(oldID, newID string) error {
	newID = strings.TrimSpace(newID)
	if newID == "" {
		return ErrInvalidSceneID
	}
	scene, ok := p.Scene(oldID)
	if !ok {
		return fmt.Errorf("rename %q: %w", oldID, ErrSceneNotFound)
	}
	if newID == oldID {
		return nil
	}
	if _, exists := p.Scenes[newID]; exists {
		return fmt.Errorf("rename %q to %q: %w", oldID, newID, ErrSceneExists)
	}

	var refs []targetRef
	for sceneID, s := range p.Scenes {
		if s == nil {
			continue
		}
		for i, c := range s.Choices {
			if c.Target == oldID {
				refs = append(refs, targetRef{scene: sceneID, index: i})
			}
		}
	}

	delete(p.Scenes, oldID)
	scene.ID = newID
	p.Scenes[newID] = scene

	for _, ref := range refs {
		// The renamed scene may itself hold references to oldID.
		sceneID := ref.scene
		if sceneID == oldID {
			sceneID = newID
		}
		p.Scenes[sceneID].Choices[ref.index].Target = newID
	}

	if p.Config.StartSceneID == oldID {
		p.Config.StartSceneID = newID
	}
	return nil
}

// DeleteScene removes a scene. Choices that pointed at it are left in
// place and become choices that stay on their scene.
func (p *Project) DeleteScene(id string) error {
	if _, ok := p.Scenes[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrSceneNotFound)
	}
	if len(p.Scenes) <= 1 {
		return ErrLastScene
	}
	if id == p.Config.StartSceneID {
		return fmt.Errorf("delete %q: %w", id, ErrStartScene)
	}
	delete(p.Scenes, id)
	return nil
}

// AddChoice appends a choice that loops back to its own scene and returns its index.
func (p *Project) AddChoice(sceneID string) (int, error) {
	s, ok := p.Scene(sceneID)
	if !ok {
		return -1, fmt.Errorf("add choice to %q: %w", sceneID, ErrSceneNotFound)
	}
	s.Choices = append(s.Choices, newChoice("New Choice", sceneID))
	return len(s.Choices) - 1, nil
}

// DeleteChoice removes the choice at index from a scene.
func (p *Project) DeleteChoice(sceneID string, index int) error {
	s, ok := p.Scene(sceneID)
	if !ok {
		return fmt.Errorf("delete choice from %q: %w", sceneID, ErrSceneNotFound)
	}
	if index < 0 || index >= len(s.Choices) {
		return fmt.Errorf("delete choice %d from %q: %w", index, sceneID, ErrChoiceNotFound)
	}
	s.Choices = append(s.Choices[:index], s.Choices[index+1:]...)
	return nil
}

// Reachable returns the scenes that can be reached from the start scene by
// following choice targets, ignoring conditions.
func (p *Project) Reachable() map[string]bool {
	seen := make(map[string]bool)
	if _, ok := p.Scene(p.Config.StartSceneID); !ok {
		return seen
	}

	queue := []string{p.Config.StartSceneID}
	seen[p.Config.StartSceneID] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range p.Scenes[id].Choices {
			if _, ok := p.Scene(c.Target); ok && !seen[c.Target] {
				seen[c.Target] = true
				queue = append(queue, c.Target)
			}
		}
	}
	return seen
}

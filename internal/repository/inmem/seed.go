package inmem

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/iliyamo/tutoring-schedule/internal/model"
)

// Seed is the reference data a memory store starts with.
type Seed struct {
	Branches  []model.Branch            `json:"branches"`
	Halls     []model.Hall              `json:"halls"`
	Teachers  []model.Teacher           `json:"teachers"`
	Templates []model.RecurringTemplate `json:"templates"`
}

// Load adds every row of seed to the store.
func (s *Store) Load(seed Seed) {
	for _, b := range seed.Branches {
		s.AddBranch(b)
	}
	for _, h := range seed.Halls {
		s.AddHall(h)
	}
	for _, t := range seed.Teachers {
		s.AddTeacher(t)
	}
	for _, t := range seed.Templates {
		s.AddTemplate(t)
	}
}

// ReadSeed decodes a JSON seed document.
func ReadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	for _, t := range seed.Templates {
		if !t.Range.Valid() {
			return Seed{}, fmt.Errorf("template %d: %w", t.ID, model.ErrInvalidRange)
		}
		if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
			return Seed{}, fmt.Errorf("template %d: day_of_week %d out of range", t.ID, t.DayOfWeek)
		}
	}
	return seed, nil
}

// LoadFile reads a JSON seed file into the store.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	seed, err := ReadSeed(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	s.Load(seed)
	return nil
}

// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Composition is a named candidate team build.
// Champions may contain duplicates; they are counted per position.
type Composition struct {
	Name      string   `json:"name"`
	Champions []string `json:"champions"`
	BasePower float64  `json:"base_power"`
}

// Lobby is a snapshot of the current game state.
type Lobby struct {
	MyUnits    []string   `json:"my_units"`
	EnemyUnits [][]string `json:"enemy_units"` // one board per opponent
}

// ScoredComp pairs a composition name with its computed score.
type ScoredComp struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// UnitDetection is a single unit reported by the vision collaborator.
type UnitDetection struct {
	Champ string  `json:"champ"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Conf  float64 `json:"conf"`
}

// Wire shapes with pointer fields so absent or null keys can be told apart
// from empty values.
type lobbyWire struct {
	MyUnits    *[]string   `json:"my_units"`
	EnemyUnits *[][]string `json:"enemy_units"`
}

type detectionWire struct {
	Champ *string  `json:"champ"`
	X     *int     `json:"x"`
	Y     *int     `json:"y"`
	Conf  *float64 `json:"conf"`
}

type compositionWire struct {
	Name      *string   `json:"name"`
	Champions *[]string `json:"champions"`
	BasePower *float64  `json:"base_power"`
}

// DecodeLobby parses a lobby payload. Both fields are required.
func DecodeLobby(data []byte) (Lobby, error) {
	const op = "model.decode_lobby"
	var w lobbyWire
	if err := decodeStrictValue(data, &w); err != nil {
		return Lobby{}, WrapKind(op, ErrParse, err)
	}
	switch {
	case w.MyUnits == nil:
		return Lobby{}, Parsef(op, "missing field `my_units`")
	case w.EnemyUnits == nil:
		return Lobby{}, Parsef(op, "missing field `enemy_units`")
	}
	for i, board := range *w.EnemyUnits {
		if board == nil {
			return Lobby{}, Parsef(op, "enemy_units[%d] must be an array", i)
		}
	}
	return Lobby{MyUnits: *w.MyUnits, EnemyUnits: *w.EnemyUnits}, nil
}

// DecodePool parses a composition pool: a JSON array of compositions with
// name, champions and base_power all present and a non-empty name.
func DecodePool(data []byte) ([]Composition, error) {
	const op = "model.decode_pool"
	var raw []compositionWire
	if err := decodeStrictValue(data, &raw); err != nil {
		return nil, WrapKind(op, ErrParse, err)
	}
	if raw == nil {
		return nil, Parsef(op, "composition pool must be an array")
	}
	pool := make([]Composition, 0, len(raw))
	for i, c := range raw {
		comp, err := c.toComposition()
		if err != nil {
			return nil, WrapKind(op, ErrParse, fmt.Errorf("composition %d: %w", i, err))
		}
		pool = append(pool, comp)
	}
	return pool, nil
}

func (c compositionWire) toComposition() (Composition, error) {
	switch {
	case c.Name == nil:
		return Composition{}, errors.New("missing field `name`")
	case *c.Name == "":
		return Composition{}, errors.New("name must not be empty")
	case c.Champions == nil:
		return Composition{}, errors.New("missing field `champions`")
	case c.BasePower == nil:
		return Composition{}, errors.New("missing field `base_power`")
	}
	return Composition{Name: *c.Name, Champions: *c.Champions, BasePower: *c.BasePower}, nil
}

// DecodeDetections parses the detector's stdout: a JSON array of detections
// with champ, x, y and conf all present. Values are passed through without
// interpretation.
func DecodeDetections(data []byte) ([]UnitDetection, error) {
	const op = "model.decode_detections"
	var raw []detectionWire
	if err := decodeStrictValue(data, &raw); err != nil {
		return nil, WrapKind(op, ErrParse, err)
	}
	if raw == nil {
		return nil, Parsef(op, "detections must be an array")
	}
	out := make([]UnitDetection, 0, len(raw))
	for i, d := range raw {
		det, err := d.toDetection()
		if err != nil {
			return nil, WrapKind(op, ErrParse, fmt.Errorf("detection %d: %w", i, err))
		}
		out = append(out, det)
	}
	return out, nil
}

func (d detectionWire) toDetection() (UnitDetection, error) {
	switch {
	case d.Champ == nil:
		return UnitDetection{}, errors.New("missing field `champ`")
	case d.X == nil:
		return UnitDetection{}, errors.New("missing field `x`")
	case d.Y == nil:
		return UnitDetection{}, errors.New("missing field `y`")
	case d.Conf == nil:
		return UnitDetection{}, errors.New("missing field `conf`")
	}
	return UnitDetection{Champ: *d.Champ, X: *d.X, Y: *d.Y, Conf: *d.Conf}, nil
}

// decodeStrictValue decodes exactly one JSON value; anything but whitespace
// after it is an error.
func decodeStrictValue(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing characters after JSON value")
	}
	return nil
}

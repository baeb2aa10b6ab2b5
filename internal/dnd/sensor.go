package dnd

import (
	"math"

	"taskboard/internal/model"
)

// DefaultActivationDistance is the pointer travel, in terminal cells, that turns a
// press on a card into a drag.
const DefaultActivationDistance = 2

// Input is raw user input offered to the sensors.
type Input interface{ isInput() }

type PointerAction int

const (
	PointerPress PointerAction = iota
	PointerMotion
	PointerRelease
)

// Hit describes what lies under the pointer.
type Hit struct {
	Target Target
	// OnControl is set for interactive controls such as the edit and delete buttons.
	OnControl bool
}

type PointerInput struct {
	Action PointerAction
	X, Y   int
	Hit    Hit
}

type KeyInput struct {
	Key string
	// Focused is the card under the keyboard cursor; zero when none.
	Focused model.ID
}

func (PointerInput) isInput() {}
func (KeyInput) isInput()     {}

// Outcome is a sensor's reaction to an input. Consumed means the input belongs to
// drag handling and should not trigger anything else.
type Outcome struct {
	Event    *Event
	Consumed bool
}

type Sensor interface {
	Translate(in Input, s State) Outcome
}

// PointerSensor arms on a press over a card and starts a drag once the pointer has
// travelled farther than Distance cells.
type PointerSensor struct {
	Distance float64

	armed  bool
	task   model.ID
	ox, oy int
}

func NewPointerSensor(distance float64) *PointerSensor {
	if distance <= 0 {
		distance = DefaultActivationDistance
	}
	return &PointerSensor{Distance: distance}
}

func (p *PointerSensor) Armed() bool { return p.armed }

func (p *PointerSensor) Translate(in Input, s State) Outcome {
	pi, ok := in.(PointerInput)
	if !ok {
		return Outcome{}
	}
	dragging := s.Phase == Dragging && s.Source == SourcePointer

	switch pi.Action {
	case PointerPress:
		if s.Phase == Dragging {
			return Outcome{Consumed: true}
		}
		p.armed = false
		if pi.Hit.OnControl || pi.Hit.Target.Kind != TargetTask {
			return Outcome{}
		}
		p.armed, p.task, p.ox, p.oy = true, pi.Hit.Target.Task, pi.X, pi.Y
		return Outcome{}

	case PointerMotion:
		if dragging {
			return Outcome{Event: &Event{Kind: EventMove, Source: SourcePointer, Over: pi.Hit.Target, X: pi.X, Y: pi.Y}, Consumed: true}
		}
		if !p.armed {
			return Outcome{}
		}
		if math.Hypot(float64(pi.X-p.ox), float64(pi.Y-p.oy)) <= p.Distance {
			return Outcome{Consumed: true}
		}
		p.armed = false
		return Outcome{Event: &Event{Kind: EventStart, Source: SourcePointer, Task: p.task, Over: pi.Hit.Target, X: pi.X, Y: pi.Y}, Consumed: true}

	case PointerRelease:
		p.armed = false
		if dragging {
			return Outcome{Event: &Event{Kind: EventDrop, Source: SourcePointer, Over: pi.Hit.Target, X: pi.X, Y: pi.Y}, Consumed: true}
		}
	}
	return Outcome{}
}

type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// Navigator moves a keyboard drop target across the board.
type Navigator interface {
	Neighbor(from Target, d Direction) (Target, bool)
}

// KeyboardSensor lifts the focused card with space, moves the drop target with the
// arrow keys and drops with space or enter. Esc cancels.
type KeyboardSensor struct {
	Nav Navigator
}

func NewKeyboardSensor(nav Navigator) *KeyboardSensor {
	return &KeyboardSensor{Nav: nav}
}

func (k *KeyboardSensor) Translate(in Input, s State) Outcome {
	ki, ok := in.(KeyInput)
	if !ok {
		return Outcome{}
	}
	if s.Phase != Dragging {
		if ki.Key == "space" || ki.Key == " " {
			if ki.Focused.IsZero() {
				return Outcome{}
			}
			return Outcome{Event: &Event{Kind: EventStart, Source: SourceKeyboard, Task: ki.Focused, Over: TaskTarget(ki.Focused)}, Consumed: true}
		}
		return Outcome{}
	}
	if s.Source != SourceKeyboard {
		if ki.Key == "esc" {
			return Outcome{Event: &Event{Kind: EventCancel, Source: SourceKeyboard}, Consumed: true}
		}
		return Outcome{Consumed: true}
	}

	switch ki.Key {
	case "space", " ", "enter":
		return Outcome{Event: &Event{Kind: EventDrop, Source: SourceKeyboard, Over: s.Over}, Consumed: true}
	case "esc":
		return Outcome{Event: &Event{Kind: EventCancel, Source: SourceKeyboard}, Consumed: true}
	}

	dir, ok := keyDirection(ki.Key)
	if !ok || k.Nav == nil {
		return Outcome{Consumed: true}
	}
	next, ok := k.Nav.Neighbor(s.Over, dir)
	if !ok {
		return Outcome{Consumed: true}
	}
	return Outcome{Event: &Event{Kind: EventMove, Source: SourceKeyboard, Over: next}, Consumed: true}
}

func keyDirection(key string) (Direction, bool) {
	switch key {
	case "left", "h":
		return Left, true
	case "right", "l":
		return Right, true
	case "up", "k":
		return Up, true
	case "down", "j":
		return Down, true
	}
	return 0, false
}

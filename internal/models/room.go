package models

// Room represents a teaching space. Rooms carry no availability; they are only exclusive.
type Room struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

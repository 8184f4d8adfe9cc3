package models

type View string

const (
	// Unauthenticated entry view where the code is entered
	ViewEntry View = "entry"
	// Protected panel showing device status
	ViewPanel View = "panel"
)

func (v View) IsProtected() bool {
	return v == ViewPanel
}

func (v View) String() string {
	return string(v)
}

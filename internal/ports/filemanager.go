package ports

// FileRevealer shows a plugin file or bundle in the desktop file manager
type FileRevealer interface {
	Reveal(path string) error
}

package ports

import "os/exec"

// EditorOpener opens files such as the config file in an external editor
type EditorOpener interface {
	// OpenFile opens the file using $EDITOR, $VISUAL or a common editor
	OpenFile(path string) error

	// Command returns the exec.Cmd that would open the file
	Command(path string) (*exec.Cmd, error)
}

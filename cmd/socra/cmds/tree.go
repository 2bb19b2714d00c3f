package cmds

import (
	"io"
	"os"

	"github.com/go-go-golems/socra/pkg/actions/filesystem"
	"github.com/go-go-golems/socra/pkg/actions/userinput"
	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/pkg/errors"
)

const systemPrompt = `You are socra, an assistant that works on the files of a project on behalf of the user.
At every step you pick one of the available actions. Ask the user when you are missing information,
and only terminate once the user confirmed there is nothing left to do.`

type toolbox struct {
	fs *filesystem.Actions
	ui *userinput.Actions
}

func newToolbox(completer completion.Completer, ws *filesystem.Workspace, w io.Writer, r io.Reader) *toolbox {
	return &toolbox{
		fs: filesystem.NewActions(ws, completer),
		ui: userinput.NewActions(completer, userinput.WithIO(w, r)),
	}
}

// Handlers names every builtin leaf handler, for trees loaded from YAML.
func (t *toolbox) Handlers() map[string]agents.Handler {
	return map[string]agents.Handler{
		filesystem.KeyCreateFile:          t.fs.CreateFile,
		filesystem.KeyUpdateFile:          t.fs.UpdateFile,
		filesystem.KeyCreateDirectory:     t.fs.CreateDirectory,
		filesystem.KeyRename:              t.fs.Rename,
		filesystem.KeyListFilesAndFolders: t.fs.ListFilesAndFolders,
		userinput.KeyInputChoices:         t.ui.InputChoices,
		userinput.KeyTextInput:            t.ui.TextInput,
		userinput.KeyTerminate:            userinput.Terminate,
	}
}

func (t *toolbox) DefaultTree() (agents.Node, error) {
	fsAgent, err := t.fs.NewAgent()
	if err != nil {
		return nil, err
	}
	uiAgent, err := t.ui.NewAgent()
	if err != nil {
		return nil, err
	}
	return agents.NewInterior("socra", "socra",
		"Work on the project files and talk to the user.",
		fsAgent, uiAgent)
}

func (t *toolbox) LoadTree(path string) (agents.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open tree %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return agents.LoadTree(f, t.Handlers())
}

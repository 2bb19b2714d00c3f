package filesystem

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	KeyFileSystem          = "file_system"
	KeyCreateFile          = "create_file"
	KeyUpdateFile          = "update_file"
	KeyCreateDirectory     = "create_directory"
	KeyRename              = "rename"
	KeyListFilesAndFolders = "list_files_and_folders"
)

const getFilePathInstructions = `Based on the context above, extract the file path from the context.
The path is either relative to the workspace or absolute.`

const getRenamePathsInstructions = `Based on the context above, extract the old and new paths of the file or folder to rename.`

var shouldUpdateTemplate = mustTemplate("should-update", `Based on the context above and the content below, decide whether or not the file should be updated.

File content:
<content>
{{ .Content }}
</content>

Set should_update to true if the file needs changes, and give an extremely brief reason.`)

var modifyContentTemplate = mustTemplate("modify-content", `Based on the context above, modify the below file content.

File content:
<content>
{{ .Content }}
</content>

content is the complete new content of the file, reasoning an extremely brief thought on what was updated and why.`)

type pathRequest struct {
	Path string `json:"path" jsonschema:"description=The path of the file or folder"`
}

type renameRequest struct {
	OldPath string `json:"old_path" jsonschema:"description=The old path of the file or folder"`
	NewPath string `json:"new_path" jsonschema:"description=The new path of the file or folder"`
}

type updateDecision struct {
	ShouldUpdate bool   `json:"should_update"`
	Reason       string `json:"reason"`
}

type contentUpdate struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning"`
}

// Actions are the file system leaves. Parameters such as paths and new
// content are extracted from the conversation with the completer.
type Actions struct {
	Workspace *Workspace
	Completer completion.Completer
}

func NewActions(ws *Workspace, completer completion.Completer) *Actions {
	return &Actions{Workspace: ws, Completer: completer}
}

// NewAgent returns the file_system subtree.
func (a *Actions) NewAgent() (*agents.Interior, error) {
	leaves := []struct {
		key, name, description string
		handler                agents.Handler
	}{
		{KeyCreateFile, "Create File",
			"Create a new file. Must already have the file path and file name in mind.", a.CreateFile},
		{KeyUpdateFile, "Update File",
			"Update the contents of a file.", a.UpdateFile},
		{KeyCreateDirectory, "Create Directory",
			"Create a new directory.", a.CreateDirectory},
		{KeyRename, "rename file or folder",
			"Rename a file or folder. Must already have the previous and new paths in mind.", a.Rename},
		{KeyListFilesAndFolders, "List Files and Folders",
			"List all files and folders for a given path. You must already have the path in mind.", a.ListFilesAndFolders},
	}

	ret, err := agents.NewInterior(
		KeyFileSystem,
		"use file system",
		"Create, update, list, and manipulate files and folders on the local file system. Call to perform any actions on files.",
	)
	if err != nil {
		return nil, err
	}
	for _, l := range leaves {
		leaf, err := agents.NewLeaf(l.key, l.name, l.description, l.handler)
		if err != nil {
			return nil, err
		}
		if err := ret.AddChild(leaf); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (a *Actions) getPath(ctx context.Context, c *agents.Context) (string, error) {
	var req pathRequest
	if err := agents.Extract(ctx, a.Completer, c, getFilePathInstructions, &req); err != nil {
		return "", err
	}
	path, err := a.Workspace.Resolve(req.Path)
	if err != nil {
		c.AddThought(fmt.Sprintf("Cannot use path %s: %s", req.Path, err))
		return "", err
	}
	log.Debug().Str("path", path).Msg("extracted file path")
	return path, nil
}

func (a *Actions) CreateFile(ctx context.Context, c *agents.Context) (interface{}, error) {
	path, err := a.getPath(ctx, c)
	if err != nil {
		return nil, err
	}

	exists, err := a.Workspace.Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		isDir, err := a.Workspace.IsDir(path)
		if err != nil {
			return nil, err
		}
		if isDir {
			c.AddThought(fmt.Sprintf("File path is a directory. Need to ask user for a file name: %s", path))
			return nil, nil
		}
		c.AddThought(fmt.Sprintf("File already exists: %s", path))
		return nil, nil
	}

	if err := a.Workspace.WriteFile(path, ""); err != nil {
		return nil, errors.Wrapf(err, "could not create %s", path)
	}
	c.AddThought(fmt.Sprintf("Created a new file at %s", path))

	return path, a.modifyContent(ctx, c, path)
}

func (a *Actions) UpdateFile(ctx context.Context, c *agents.Context) (interface{}, error) {
	path, err := a.getPath(ctx, c)
	if err != nil {
		return nil, err
	}

	exists, err := a.Workspace.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		thought := fmt.Sprintf("File path '%s' does not exist", path)
		c.AddThought(thought)
		return thought, nil
	}

	content, err := a.Workspace.ReadFile(path)
	if err != nil {
		return nil, err
	}

	instructions, err := render(shouldUpdateTemplate, content)
	if err != nil {
		return nil, err
	}
	var decision updateDecision
	if err := agents.Extract(ctx, a.Completer, c, instructions, &decision); err != nil {
		return nil, err
	}

	reason := strings.ToLower(decision.Reason)
	if !decision.ShouldUpdate {
		c.AddThought(fmt.Sprintf("Decided not to update %s because %s", path, reason))
		return path, nil
	}
	c.AddThought(fmt.Sprintf("Decided to update %s because %s", path, reason))

	return path, a.modifyContent(ctx, c, path)
}

func (a *Actions) modifyContent(ctx context.Context, c *agents.Context, path string) error {
	content, err := a.Workspace.ReadFile(path)
	if err != nil {
		return err
	}

	instructions, err := render(modifyContentTemplate, content)
	if err != nil {
		return err
	}
	var update contentUpdate
	if err := agents.Extract(ctx, a.Completer, c, instructions, &update); err != nil {
		return err
	}

	if err := a.Workspace.WriteFile(path, update.Content); err != nil {
		return errors.Wrapf(err, "could not write %s", path)
	}
	c.AddThought(fmt.Sprintf("Modified the file content: %s", update.Reasoning))
	return nil
}

func (a *Actions) CreateDirectory(ctx context.Context, c *agents.Context) (interface{}, error) {
	path, err := a.getPath(ctx, c)
	if err != nil {
		return nil, err
	}

	exists, err := a.Workspace.Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		c.AddThought(fmt.Sprintf("Path already exists: %s", path))
		return nil, nil
	}

	if err := a.Workspace.MkdirAll(path); err != nil {
		return nil, errors.Wrapf(err, "could not create directory %s", path)
	}
	c.AddThought(fmt.Sprintf("I successfully created the directory at %s. I will now move on.", path))
	return path, nil
}

func (a *Actions) Rename(ctx context.Context, c *agents.Context) (interface{}, error) {
	var req renameRequest
	if err := agents.Extract(ctx, a.Completer, c, getRenamePathsInstructions, &req); err != nil {
		return nil, err
	}

	oldPath, err := a.Workspace.Resolve(req.OldPath)
	if err != nil {
		c.AddThought(fmt.Sprintf("Cannot use path %s: %s", req.OldPath, err))
		return nil, err
	}
	newPath, err := a.Workspace.Resolve(req.NewPath)
	if err != nil {
		c.AddThought(fmt.Sprintf("Cannot use path %s: %s", req.NewPath, err))
		return nil, err
	}

	exists, err := a.Workspace.Exists(oldPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		c.AddThought(fmt.Sprintf("Path '%s' does not exist", oldPath))
		return nil, nil
	}

	if err := a.Workspace.Rename(oldPath, newPath); err != nil {
		return nil, errors.Wrapf(err, "could not rename %s to %s", oldPath, newPath)
	}
	c.AddThought(fmt.Sprintf("DONE: Successfully renamed %s to %s.", oldPath, newPath))
	return newPath, nil
}

func (a *Actions) ListFilesAndFolders(ctx context.Context, c *agents.Context) (interface{}, error) {
	path, err := a.getPath(ctx, c)
	if err != nil {
		return nil, err
	}

	exists, err := a.Workspace.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		c.AddThought(fmt.Sprintf("File path '%s' does not exist", path))
		return nil, nil
	}

	entries, err := a.Workspace.List(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %s", path)
	}
	c.AddThought(fmt.Sprintf("Files and folders at %s: [%s]", path, strings.Join(entries, ", ")))
	return entries, nil
}

package gen

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// CompileCommandsFile is the name of the compile database read by clangd
const CompileCommandsFile = "compile_commands.json"

// CompileCommand is one entry of a compile database
type CompileCommand struct {
	File      string   `json:"file"`
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments"`
}

// key identifies the compiled file by its full path
func (c CompileCommand) key() string {
	return filepath.Join(c.Directory, c.File)
}

// Merge upserts incoming into existing: an entry whose file is already known
// replaces the old one in place, anything else is appended
func Merge(existing, incoming []CompileCommand) []CompileCommand {
	merged := make([]CompileCommand, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, cmd := range merged {
		index[cmd.key()] = i
	}

	for _, cmd := range incoming {
		if i, ok := index[cmd.key()]; ok {
			merged[i] = cmd
			continue
		}
		index[cmd.key()] = len(merged)
		merged = append(merged, cmd)
	}
	return merged
}

// LoadCompileCommands reads a compile database. A missing file is reported
// with an error matching fs.ErrNotExist.
func LoadCompileCommands(path string) ([]CompileCommand, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cmds []CompileCommand
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

func SaveCompileCommands(path string, cmds []CompileCommand) error {
	if cmds == nil {
		cmds = []CompileCommand{}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bufw := bufio.NewWriter(f)
	enc := json.NewEncoder(bufw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cmds); err != nil {
		return err
	}
	return bufw.Flush()
}

// MergeCompileCommands merges cmds into the compile database at path,
// creating it when it does not exist. An empty cmds leaves the file untouched.
func MergeCompileCommands(path string, cmds []CompileCommand) error {
	if len(cmds) == 0 {
		return nil
	}

	existing, err := LoadCompileCommands(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return SaveCompileCommands(path, Merge(existing, cmds))
}

package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/key"
	"github.com/zjrosen/quill/internal/syntax"
)

// testEditor builds an editor without a terminal; everything except the
// screen refresh and the key loop works on it.
func testEditor() *Editor {
	cfg := config.Defaults()
	return &Editor{cfg: cfg, quitTimes: cfg.QuitTimes, syntax: syntax.Plain()}
}

func typeText(e *Editor, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			e.insertNewLine()
		} else {
			e.insertByte(s[i])
		}
	}
}

func lineContents(e *Editor) []string {
	out := make([]string, len(e.lines))
	for i, l := range e.lines {
		out[i] = l.Content()
	}
	return out
}

func TestInsertByte(t *testing.T) {
	e := testEditor()

	e.insertByte('X')
	e.insertByte('Y')
	e.insertByte('Z')

	require.Equal(t, 3, e.cursor.x)
	require.Equal(t, []string{"XYZ"}, lineContents(e))
	require.Equal(t, 3, e.nBytes)
	require.True(t, e.dirty)
}

func TestInsertNewLine(t *testing.T) {
	e := testEditor()

	for i := 0; i < 3; i++ {
		e.insertNewLine()
	}

	require.Equal(t, 3, e.cursor.y)
	require.Equal(t, []string{"", "", ""}, lineContents(e))
	require.Equal(t, 0, e.nBytes)
}

func TestInsertNewLineSplitsLine(t *testing.T) {
	e := testEditor()
	typeText(e, "hello")
	e.cursor.x = 2

	e.insertNewLine()

	require.Equal(t, []string{"he", "llo"}, lineContents(e))
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 1, e.cursor.y)
	require.Equal(t, 5, e.nBytes, "splitting does not change the byte count")
}

func TestDeleteChar(t *testing.T) {
	e := testEditor()
	typeText(e, "Hello world!")

	e.deleteChar()
	require.Equal(t, []string{"Hello world"}, lineContents(e))

	e.moveCursor(key.DirLeft, true)
	e.moveCursor(key.DirLeft, false)
	e.moveCursor(key.DirLeft, false)
	e.deleteChar()
	require.Equal(t, []string{"Helo world"}, lineContents(e))
}

func TestDeleteCharMergesLines(t *testing.T) {
	e := testEditor()
	typeText(e, "ab\ncd")
	e.cursor = cursor{x: 0, y: 1}

	e.deleteChar()

	require.Equal(t, []string{"abcd"}, lineContents(e))
	require.Equal(t, 2, e.cursor.x, "cursor lands at the join point")
	require.Equal(t, 0, e.cursor.y)
	require.True(t, e.dirty)
	require.Equal(t, 4, e.nBytes)
}

func TestDeleteCharOnUnnamedBufferClearsDirty(t *testing.T) {
	e := testEditor()
	e.insertByte('x')
	require.True(t, e.dirty)

	e.deleteChar()

	require.False(t, e.dirty, "an empty unnamed buffer has nothing to lose")
	require.Equal(t, 0, e.nBytes)
}

func TestDeleteCharPastLastLine(t *testing.T) {
	e := testEditor()
	typeText(e, "ab")
	e.moveCursor(key.DirDown, false)
	require.Equal(t, 1, e.cursor.y)

	// Backspace on the virtual line behaves like the left arrow.
	e.deleteChar()

	require.Equal(t, []string{"ab"}, lineContents(e))
	require.Equal(t, 2, e.cursor.x)
	require.Equal(t, 0, e.cursor.y)
}

func TestMoveCursorLeft(t *testing.T) {
	e := testEditor()
	typeText(e, "Hello world!\nHappy New Year!")

	require.Equal(t, 15, e.cursor.x)
	require.Equal(t, 1, e.cursor.y)

	steps := []struct {
		ctrl bool
		x, y int
	}{
		{true, 10, 1},
		{false, 9, 1},
		{true, 6, 1},
		{true, 0, 1},
		{false, 12, 0},
		{true, 6, 0},
		{true, 0, 0},
		{false, 0, 0},
	}
	for i, step := range steps {
		e.moveCursor(key.DirLeft, step.ctrl)
		require.Equal(t, step.x, e.cursor.x, "step %d x", i)
		require.Equal(t, step.y, e.cursor.y, "step %d y", i)
	}
}

func TestMoveCursorRight(t *testing.T) {
	e := testEditor()
	typeText(e, "Hello world\nHappy New Year")

	require.Equal(t, 14, e.cursor.x)
	require.Equal(t, 1, e.cursor.y)

	e.moveCursor(key.DirRight, false)
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 2, e.cursor.y)

	e.moveCursor(key.DirRight, false)
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 2, e.cursor.y, "no line below the virtual line")

	e.moveCursor(key.DirUp, true)
	e.moveCursor(key.DirUp, true)
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 0, e.cursor.y)

	e.moveCursor(key.DirRight, true)
	require.Equal(t, 5, e.cursor.x, "ctrl-right stops at the space")

	e.moveCursor(key.DirRight, true)
	require.Equal(t, 11, e.cursor.x, "ctrl-right stops at the end of the line")
}

func TestMoveCursorRightIntoNextLine(t *testing.T) {
	e := testEditor()
	typeText(e, "abcdefgh\nij")
	e.cursor = cursor{x: 8, y: 0}

	e.moveCursor(key.DirRight, false)

	require.Equal(t, 0, e.cursor.x, "right at end of line moves to the start of the next")
	require.Equal(t, 1, e.cursor.y)
}

func TestMoveCursorUp(t *testing.T) {
	e := testEditor()
	typeText(e, "abcdefgh\nij\nklmnopqrstuvwxyz")

	require.Equal(t, 16, e.cursor.x)
	require.Equal(t, 2, e.cursor.y)

	e.moveCursor(key.DirUp, false)
	require.Equal(t, 2, e.cursor.x, "x clamps to the shorter line")
	require.Equal(t, 1, e.cursor.y)

	e.moveCursor(key.DirUp, true)
	require.Equal(t, 2, e.cursor.x)
	require.Equal(t, 0, e.cursor.y)

	e.moveCursor(key.DirUp, false)
	require.Equal(t, 2, e.cursor.x)
	require.Equal(t, 0, e.cursor.y, "up at the top is a no-op")
}

func TestMoveCursorDown(t *testing.T) {
	e := testEditor()
	typeText(e, "abcdefgh\nij\nklmnopqrstuvwxyz")

	e.moveCursor(key.DirDown, false)
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 3, e.cursor.y)

	for i := 0; i < 3; i++ {
		e.moveCursor(key.DirUp, false)
	}
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 0, e.cursor.y)

	e.moveCursor(key.DirRight, true)
	require.Equal(t, 8, e.cursor.x)

	e.moveCursor(key.DirDown, true)
	require.Equal(t, 2, e.cursor.x)
	require.Equal(t, 1, e.cursor.y)

	e.moveCursor(key.DirDown, true)
	require.Equal(t, 2, e.cursor.x)
	require.Equal(t, 2, e.cursor.y)

	e.moveCursor(key.DirDown, true)
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 3, e.cursor.y)

	e.moveCursor(key.DirDown, false)
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 3, e.cursor.y, "down past the virtual line is a no-op")
}

func TestMoveCursorStepsWholeCharacters(t *testing.T) {
	e := testEditor()
	typeText(e, "a\xe4\xb8\x96b") // a世b

	e.cursor.x = 4
	e.moveCursor(key.DirLeft, false)
	require.Equal(t, 1, e.cursor.x, "left steps over all three bytes of 世")

	e.moveCursor(key.DirRight, false)
	require.Equal(t, 4, e.cursor.x, "right steps over all three bytes of 世")
}

func TestDeleteCharRemovesWholeCharacter(t *testing.T) {
	e := testEditor()
	typeText(e, "a\xe4\xb8\x96b")
	e.cursor.x = 4

	e.deleteChar()

	require.Equal(t, []string{"ab"}, lineContents(e))
	require.Equal(t, 1, e.cursor.x)
	require.Equal(t, 2, e.nBytes)
}

func TestDeleteCurrentLine(t *testing.T) {
	e := testEditor()
	typeText(e, "ab\ncd\nef")
	e.cursor = cursor{x: 1, y: 1}

	e.deleteCurrentLine()

	require.Equal(t, []string{"ab", "ef"}, lineContents(e))
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 1, e.cursor.y)
	require.Equal(t, 4, e.nBytes)
}

func TestDeleteCurrentLineAtEnd(t *testing.T) {
	e := testEditor()
	typeText(e, "ab\ncd")
	e.cursor = cursor{x: 1, y: 1}

	e.deleteCurrentLine()

	require.Equal(t, []string{"ab", ""}, lineContents(e))
	require.Equal(t, 0, e.cursor.x)
	require.Equal(t, 1, e.cursor.y)
	require.Equal(t, 2, e.nBytes)
}

func TestCopyAndPaste(t *testing.T) {
	e := testEditor()
	typeText(e, "hello")

	e.copyCurrentLine()
	e.pasteLine()

	require.Equal(t, []string{"hello", "hello"}, lineContents(e))
	require.Equal(t, 1, e.cursor.y)
	require.Equal(t, 10, e.nBytes)
}

func TestPasteWithoutCopyIsNoop(t *testing.T) {
	e := testEditor()
	typeText(e, "hello")

	e.pasteLine()

	require.Equal(t, []string{"hello"}, lineContents(e))
}

func TestDuplicateCurrentLine(t *testing.T) {
	e := testEditor()
	typeText(e, "abc")

	e.duplicateCurrentLine()

	require.Equal(t, []string{"abc", "abc"}, lineContents(e))
	require.Equal(t, 1, e.cursor.y)
}

func TestCutAndPaste(t *testing.T) {
	e := testEditor()
	typeText(e, "ab\ncd")
	e.cursor = cursor{x: 0, y: 0}

	// Cut is copy plus delete-line.
	e.copyCurrentLine()
	e.deleteCurrentLine()
	require.Equal(t, []string{"cd"}, lineContents(e))
	require.Equal(t, []byte("ab"), e.copied)
	require.Equal(t, 2, e.nBytes)

	e.pasteLine()
	require.Equal(t, []string{"cd", "ab"}, lineContents(e))
	require.Equal(t, 4, e.nBytes)
}

func TestInsertOnVirtualLine(t *testing.T) {
	e := testEditor()
	typeText(e, "ab")
	e.moveCursor(key.DirDown, false)

	e.insertByte('x')

	require.Equal(t, []string{"ab", "x"}, lineContents(e))
	require.Equal(t, 1, e.cursor.x)
	require.Equal(t, 1, e.cursor.y)
	require.Equal(t, 3, e.nBytes)
}

func TestQuitCountdown(t *testing.T) {
	e := testEditor()
	typeText(e, "x")
	require.True(t, e.dirty)

	quit, _ := e.processKeypress(key.Char(keyExit))
	require.False(t, quit)
	require.NotNil(t, e.statusMsg)
	require.Contains(t, e.statusMsg.msg, "1 more time")

	quit, _ = e.processKeypress(key.Char(keyExit))
	require.True(t, quit, "second ^Q quits")
}

func TestQuitCountdownResetsOnOtherKey(t *testing.T) {
	e := testEditor()
	typeText(e, "x")

	quit, _ := e.processKeypress(key.Char(keyExit))
	require.False(t, quit)

	e.processKeypress(key.Arrow(key.DirLeft))

	quit, _ = e.processKeypress(key.Char(keyExit))
	require.False(t, quit, "countdown restarted after the arrow key")
}

func TestQuitCleanBufferQuitsImmediately(t *testing.T) {
	e := testEditor()

	quit, _ := e.processKeypress(key.Char(keyExit))

	require.True(t, quit)
}

func TestProcessKeypressDispatch(t *testing.T) {
	e := testEditor()

	quit, next := e.processKeypress(key.Char('q'))
	require.False(t, quit)
	require.Nil(t, next)
	require.Equal(t, []string{"q"}, lineContents(e))

	quit, next = e.processKeypress(key.Char('\r'))
	require.False(t, quit)
	require.Nil(t, next)
	require.Equal(t, []string{"q", ""}, lineContents(e))

	e.processKeypress(key.Event{Kind: key.KindHome})
	require.Equal(t, 0, e.cursor.x)

	e.cursor = cursor{x: 0, y: 0}
	e.processKeypress(key.Event{Kind: key.KindEnd})
	require.Equal(t, 1, e.cursor.x)

	e.cursor = cursor{x: 0, y: 0}
	e.processKeypress(key.Event{Kind: key.KindDelete})
	require.Equal(t, []string{"", ""}, lineContents(e), "delete removes the character under the cursor")
}

func TestProcessKeypressOpensPrompts(t *testing.T) {
	e := testEditor()

	_, next := e.processKeypress(key.Char(keyFind))
	require.NotNil(t, next)
	require.Equal(t, promptFind, next.kind)

	_, next = e.processKeypress(key.Char(keyGoTo))
	require.NotNil(t, next)
	require.Equal(t, promptGoTo, next.kind)

	_, next = e.processKeypress(key.Char(keyExecute))
	require.NotNil(t, next)
	require.Equal(t, promptExecute, next.kind)

	_, next = e.processKeypress(key.Char(keySave))
	require.NotNil(t, next, "unnamed buffer prompts for a file name")
	require.Equal(t, promptSave, next.kind)
}

func TestPageKeys(t *testing.T) {
	e := testEditor()
	for i := 0; i < 30; i++ {
		e.insertNewLine()
	}
	e.screenRows = 10
	e.cursor.rowOff = 5

	e.processKeypress(key.Page(key.DirDown))
	require.Equal(t, 24, e.cursor.y)

	e.processKeypress(key.Page(key.DirUp))
	require.Equal(t, 0, e.cursor.y)
}

func TestFindCyclesThroughMatches(t *testing.T) {
	e := testEditor()
	typeText(e, "foo bar\nbaz\nbar foo")

	got := e.find("bar", -1, true)
	require.Equal(t, 0, got)
	require.Equal(t, 4, e.cursor.x)
	require.Equal(t, 0, e.cursor.y)

	got = e.find("bar", got, true)
	require.Equal(t, 2, got)
	require.Equal(t, 0, e.cursor.x)

	got = e.find("bar", got, true)
	require.Equal(t, 0, got, "search wraps around")

	got = e.find("bar", got, false)
	require.Equal(t, 2, got, "backward search wraps the other way")
}

func TestFindSetsMatchOverlay(t *testing.T) {
	e := testEditor()
	typeText(e, "find this text")

	got := e.find("this", -1, true)

	require.Equal(t, 0, got)
	require.Contains(t, e.lines[0].Draw(0, 80), "\x1b[46m", "match columns use the match background")
}

func TestFindNoMatch(t *testing.T) {
	e := testEditor()
	typeText(e, "hello")
	e.cursor = cursor{x: 2, y: 0}

	got := e.find("zzz", -1, true)

	require.Equal(t, -1, got)
	require.Equal(t, 2, e.cursor.x, "cursor stays put on a miss")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\n"), 0o644))

	e := testEditor()
	require.NoError(t, e.load(path))

	require.Equal(t, []string{"alpha", "beta", ""}, lineContents(e),
		"trailing newline yields a final empty line")
	require.Equal(t, 9, e.nBytes)
	require.False(t, e.dirty)
}

func TestLoadNoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta"), 0o644))

	e := testEditor()
	require.NoError(t, e.load(path))

	require.Equal(t, []string{"alpha", "beta"}, lineContents(e))
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	e := testEditor()
	require.NoError(t, e.load(path))

	require.Equal(t, []string{""}, lineContents(e))
	require.Equal(t, 0, e.nBytes)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	e := testEditor()

	require.NoError(t, e.load(filepath.Join(t.TempDir(), "new.txt")))

	require.Equal(t, []string{""}, lineContents(e))
}

func TestLoadRejectsDirectories(t *testing.T) {
	e := testEditor()

	err := e.load(t.TempDir())

	require.Error(t, err)
	require.Contains(t, err.Error(), "not a regular file")
}

func TestSave(t *testing.T) {
	e := testEditor()
	typeText(e, "alpha\nbeta\n")
	path := filepath.Join(t.TempDir(), "out.txt")

	written, err := e.save(path)

	require.NoError(t, err)
	require.Equal(t, 11, written)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "alpha\nbeta\n", string(data))
}

func TestSaveAndReport(t *testing.T) {
	e := testEditor()
	typeText(e, "hello")
	path := filepath.Join(t.TempDir(), "out.txt")

	ok := e.saveAndReport(path)

	require.True(t, ok)
	require.False(t, e.dirty)
	require.NotNil(t, e.statusMsg)
	require.Contains(t, e.statusMsg.msg, "5B written to")
}

func TestSaveAndReportFailure(t *testing.T) {
	e := testEditor()
	typeText(e, "hello")

	ok := e.saveAndReport(filepath.Join(t.TempDir(), "missing-dir", "out.txt"))

	require.False(t, ok)
	require.True(t, e.dirty, "a failed save keeps the buffer dirty")
	require.Contains(t, e.statusMsg.msg, "Can't save! I/O error:")
}

func TestSaveAsAdoptsNameAndSyntax(t *testing.T) {
	e := testEditor()
	e.registry = syntax.NewRegistry(nil)
	typeText(e, "package main")
	path := filepath.Join(t.TempDir(), "main.go")

	e.saveAs(path)

	require.Equal(t, path, e.fileName)
	require.Equal(t, "Go", e.syntaxName())
	require.False(t, e.dirty)
}

func TestUpdateLinePropagation(t *testing.T) {
	e := testEditor()
	e.syntax = &syntax.Definition{
		Name:         "T",
		BlockComment: &syntax.DelimiterPair{Start: "/*", End: "*/"},
	}
	typeText(e, "aa\nbb\ncc")

	e.cursor = cursor{x: 0, y: 0}
	e.insertByte('/')
	e.insertByte('*')

	for i, l := range e.lines {
		require.Equal(t, syntax.StateBlockComment, l.Carry().Kind, "line %d carries the open comment", i)
	}
	require.Contains(t, e.lines[2].Draw(0, 80), "\x1b[34m", "downstream lines re-render as comment")

	// Breaking the opener rolls every line back to normal.
	e.deleteChar()
	for i, l := range e.lines {
		require.Equal(t, syntax.StateNormal, l.Carry().Kind, "line %d back to normal", i)
	}
}

func TestSelectSyntaxWithoutRegistryFallsBackToPlain(t *testing.T) {
	e := testEditor()

	e.selectSyntax("main.go")

	require.Equal(t, "", e.syntaxName())
}

func TestSelectSyntaxByExtension(t *testing.T) {
	e := testEditor()
	e.registry = syntax.NewRegistry(nil)

	e.selectSyntax("main.go")
	require.Equal(t, "Go", e.syntaxName())

	e.selectSyntax("notes.txt")
	require.Equal(t, "", e.syntaxName(), "unknown extensions get the plain definition")
}

func TestIsEmpty(t *testing.T) {
	e := testEditor()
	assert.True(t, e.isEmpty())

	e.insertByte('a')
	assert.False(t, e.isEmpty())

	e.deleteChar()
	assert.True(t, e.isEmpty())

	e.insertNewLine()
	e.insertNewLine()
	assert.False(t, e.isEmpty(), "several empty lines still contain newlines")
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/corpus"
	"github.com/runger/cmdcorpus/internal/session"
)

func record(seq int, cmd string) corpus.Record {
	return corpus.Record{
		ExtractedCommand: session.ExtractedCommand{Command: cmd, Seq: seq, Success: true, Answered: true},
		Source:           "s.jsonl",
	}
}

func seedImport(t *testing.T, s *Store, source string, cmds ...string) Import {
	t.Helper()
	recs := make([]corpus.Record, len(cmds))
	for i, c := range cmds {
		recs[i] = record(i+1, c)
	}
	imp, err := s.SaveImport(context.Background(), Import{Source: source}, recs)
	require.NoError(t, err)
	return imp
}

func TestSaveImport_DerivedColumns(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	exit := 2
	failing := record(2, "make   test")
	failing.ExitCode = &exit
	failing.Success = false
	risky := record(3, "sudo rm -rf /tmp/x")
	risky.Risks = []string{"rm -rf", "rm -f"}

	imp, err := s.SaveImport(ctx, Import{Source: "logs/"}, []corpus.Record{
		record(1, "git log --oneline | head -5"),
		failing,
		risky,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, imp.ID)
	assert.Equal(t, KindSessions, imp.Kind)
	assert.Equal(t, 3, imp.Commands)
	assert.False(t, imp.CreatedAt.IsZero())

	rows, err := s.QueryCommands(ctx, Query{ImportID: imp.ID})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	git := rows[0]
	assert.Equal(t, "git", git.Base)
	assert.Equal(t, analysis.Git, git.Category)
	assert.Equal(t, 3, git.Score)
	assert.Equal(t, analysis.Intermediate, git.Band())
	assert.Equal(t, 1, git.Pipes)
	assert.Equal(t, 6, git.Words)
	assert.False(t, git.Sudo)
	assert.Nil(t, git.ExitCode)
	assert.Len(t, git.Hash, 64)

	mk := rows[1]
	assert.Equal(t, "make   test", mk.Command)
	assert.Equal(t, "make test", mk.Normalized)
	require.NotNil(t, mk.ExitCode)
	assert.Equal(t, 2, *mk.ExitCode)
	assert.False(t, mk.Success)

	rm := rows[2]
	assert.True(t, rm.Sudo)
	assert.Equal(t, "rm", rm.Base)
	assert.Equal(t, analysis.FileOperations, rm.Category)
	assert.Equal(t, []string{"rm -rf", "rm -f"}, rm.Risks)
}

func TestSaveImport_Validation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveImport(ctx, Import{}, nil)
	assert.Error(t, err)

	imp, err := s.SaveImport(ctx, Import{ID: "fixed", Source: "a", CreatedAt: time.UnixMilli(1000)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", imp.ID)

	_, err = s.SaveImport(ctx, Import{ID: "fixed", Source: "b"}, nil)
	assert.ErrorContains(t, err, "already exists")
}

func TestQueryCommands_Filters(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	first := seedImport(t, s, "one", "git status", "ls -la", "git diff | less")
	seedImport(t, s, "two", "git push")

	rows, err := s.QueryCommands(ctx, Query{Category: analysis.Git})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = s.QueryCommands(ctx, Query{Category: analysis.Git, ImportID: first.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.QueryCommands(ctx, Query{MinScore: 3})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "git diff | less", rows[0].Command)

	rows, err = s.QueryCommands(ctx, Query{Base: "ls"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.QueryCommands(ctx, Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestImports_ListGetDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	older, err := s.SaveImport(ctx, Import{ID: "aaaa-1111", Source: "one", CreatedAt: time.UnixMilli(1000)}, []corpus.Record{record(1, "ls")})
	require.NoError(t, err)
	newer, err := s.SaveImport(ctx, Import{ID: "aaaa-2222", Source: "two", Kind: KindHistory, CreatedAt: time.UnixMilli(2000)}, nil)
	require.NoError(t, err)

	list, err := s.ListImports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, KindHistory, list[0].Kind)
	assert.Equal(t, 1, list[1].Commands)

	got, err := s.GetImport(ctx, "aaaa-1")
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
	assert.Equal(t, time.UnixMilli(1000), got.CreatedAt)

	_, err = s.GetImport(ctx, "aaaa")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = s.GetImport(ctx, "zzz")
	assert.True(t, errors.Is(err, ErrImportNotFound))

	require.NoError(t, s.DeleteImport(ctx, older.ID))
	texts, err := s.CommandTexts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, texts, "commands cascade with their import")

	assert.ErrorIs(t, s.DeleteImport(ctx, older.ID), ErrImportNotFound)
}

func TestCommandTexts(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	a := seedImport(t, s, "a", "ls", "pwd")
	seedImport(t, s, "b", "whoami")

	all, err := s.CommandTexts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ls", "pwd", "whoami"}, all)

	some, err := s.CommandTexts(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ls", "pwd"}, some)
}

func TestBandHistogram(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.BandHistogram(ctx, "")
	require.NoError(t, err)
	require.Len(t, empty, 3)
	for _, b := range empty {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.Percent)
	}

	seedImport(t, s, "a",
		"ls",
		"pwd",
		"cat a | grep b",
		"cat a | grep b | sort > out",
	)

	bands, err := s.BandHistogram(ctx, "")
	require.NoError(t, err)
	require.Len(t, bands, 3)
	assert.Equal(t, analysis.Beginner, bands[0].Band)
	assert.Equal(t, 2, bands[0].Count)
	assert.Equal(t, 1, bands[1].Count)
	assert.Equal(t, 1, bands[2].Count)
	assert.InDelta(t, 50.0, bands[0].Percent, 0.001)
}

func TestCategoryHistogram(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	imp := seedImport(t, s, "a", "git status", "git log", "ls", "curl x", "mystery-tool")

	cats, err := s.CategoryHistogram(context.Background(), imp.ID)
	require.NoError(t, err)
	require.Len(t, cats, 4)
	assert.Equal(t, analysis.Git, cats[0].Category)
	assert.Equal(t, 2, cats[0].Count)
	assert.InDelta(t, 40.0, cats[0].Percent, 0.001)
	assert.Equal(t, analysis.FileOperations, cats[1].Category)
	assert.Equal(t, analysis.Network, cats[2].Category)
	assert.Equal(t, analysis.Other, cats[3].Category)
}

package stack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	revsyncerrors "revsync.dev/revsync/internal/errors"
	"revsync.dev/revsync/internal/stack"
	"revsync.dev/revsync/internal/testhelper"
)

func chainOfThree(fj *testhelper.FakeJJ) {
	fj.AddChange("aaa", "Add widget\n")
	fj.AddChange("bbb", "Wire widget\n")
	fj.AddChange("ccc", "Document widget\n")
}

func TestResolveSingle(t *testing.T) {
	fj := testhelper.NewFakeJJ()
	chainOfThree(fj)
	fj.Aliases["@-"] = "bbb"

	r := stack.NewResolver(fj, "main")
	st, err := r.Resolve(context.Background(), "@-", stack.ModeSingle)
	require.NoError(t, err)

	require.Equal(t, 1, st.Len())
	require.Equal(t, "bbb", st.Changes[0].ID)
	require.Nil(t, st.Parent(0))
}

func TestResolveSingleErrors(t *testing.T) {
	fj := testhelper.NewFakeJJ()
	chainOfThree(fj)
	fj.Ambiguous["heads(all())"] = true

	r := stack.NewResolver(fj, "main")

	_, err := r.Resolve(context.Background(), "zzz", stack.ModeSingle)
	require.ErrorIs(t, err, revsyncerrors.ErrNotFound)

	_, err = r.Resolve(context.Background(), "heads(all())", stack.ModeSingle)
	require.ErrorIs(t, err, revsyncerrors.ErrAmbiguousRevision)
}

func TestResolveAllFromBase(t *testing.T) {
	fj := testhelper.NewFakeJJ()
	chainOfThree(fj)

	r := stack.NewResolver(fj, "main")
	st, err := r.Resolve(context.Background(), "ccc", stack.ModeAllFromBase)
	require.NoError(t, err)

	require.Equal(t, 3, st.Len())
	// Ancestor-first: every entry's parent precedes it.
	require.Equal(t, "aaa", st.Changes[0].ID)
	require.Equal(t, "bbb", st.Changes[1].ID)
	require.Equal(t, "ccc", st.Changes[2].ID)
	require.Nil(t, st.Parent(0))
	require.Equal(t, "aaa", st.Parent(1).ID)
}

func TestResolveEmptyStack(t *testing.T) {
	fj := testhelper.NewFakeJJ()
	chainOfThree(fj)

	r := stack.NewResolver(fj, "main")
	_, err := r.Resolve(context.Background(), "main", stack.ModeAllFromBase)
	require.ErrorIs(t, err, revsyncerrors.ErrEmptyStack)
}

func TestResolveDetachedBase(t *testing.T) {
	fj := testhelper.NewFakeJJ()
	chainOfThree(fj)
	fj.NoTrunk = true

	r := stack.NewResolver(fj, "main")
	_, err := r.Resolve(context.Background(), "ccc", stack.ModeAllFromBase)
	require.ErrorIs(t, err, revsyncerrors.ErrDetachedBase)
}

func TestResolveNonLinearChain(t *testing.T) {
	fj := testhelper.NewFakeJJ()
	chainOfThree(fj)
	// ccc forks off aaa instead of following bbb.
	fj.Chain[2].ParentID = "aaa"

	r := stack.NewResolver(fj, "main")
	_, err := r.Resolve(context.Background(), "ccc", stack.ModeAllFromBase)
	require.ErrorIs(t, err, revsyncerrors.ErrAmbiguousRevision)

	// Cherry-pick mode does not require linearity.
	st, err := r.Resolve(context.Background(), "ccc", stack.ModeCherryPick)
	require.NoError(t, err)
	require.Equal(t, 3, st.Len())
	require.Nil(t, st.Parent(1))
}

func TestParseRevisionArg(t *testing.T) {
	tests := []struct {
		name     string
		revision string
		allMode  bool
		baseFlag string
		want     stack.RevisionArg
	}{
		{
			name: "default revision",
			want: stack.RevisionArg{Target: "@-"},
		},
		{
			name:     "single revision",
			revision: "xyz",
			want:     stack.RevisionArg{Target: "xyz"},
		},
		{
			name:     "exclusive range",
			revision: "main..xyz",
			want:     stack.RevisionArg{Base: "main", Target: "xyz", Ranged: true},
		},
		{
			name:     "inclusive range",
			revision: "abc::xyz",
			want:     stack.RevisionArg{Base: "abc", Target: "xyz", Ranged: true, Inclusive: true},
		},
		{
			name:     "all mode uses default base",
			revision: "xyz",
			allMode:  true,
			want:     stack.RevisionArg{Base: "trunk()", Target: "xyz", Ranged: true},
		},
		{
			name:     "all mode with base flag",
			revision: "xyz",
			allMode:  true,
			baseFlag: "release",
			want:     stack.RevisionArg{Base: "release", Target: "xyz", Ranged: true},
		},
		{
			name:     "range syntax overrides all mode",
			revision: "abc..xyz",
			allMode:  true,
			baseFlag: "release",
			want:     stack.RevisionArg{Base: "abc", Target: "xyz", Ranged: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stack.ParseRevisionArg(tt.revision, tt.allMode, tt.baseFlag, "trunk()")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed ranges", func(t *testing.T) {
		_, err := stack.ParseRevisionArg("a..b..c", false, "", "trunk()")
		require.Error(t, err)
		_, err = stack.ParseRevisionArg("a::b::c", false, "", "trunk()")
		require.Error(t, err)
	})
}

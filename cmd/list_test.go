package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/mutaug/internal/domain"
)

func TestListCmd_PassesPaths(t *testing.T) {
	wf := new(mockWorkflow)
	requested := useWorkflow(t, wf)

	wf.On("List", mock.Anything, domain.PathArgs{
		SourceDir: "lib",
		TestDir:   "tests",
		Exclude:   []string{"^vendor/"},
	}).Return(nil).Once()

	cmd, _ := newTestRootCmd(t, newListCmd())
	cmd.SetArgs([]string{"list", "--source", "lib", "-x", "^vendor/"})

	require.NoError(t, cmd.Execute())
	wf.AssertExpectations(t)

	require.Len(t, *requested, 1)
	assert.Nil(t, (*requested)[0])
}

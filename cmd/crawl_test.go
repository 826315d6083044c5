package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCrawlRequiresSeedArgument(t *testing.T) {
	root := newRootCmd()
	root.SetOut(bytes.NewBuffer(nil))
	root.SetErr(bytes.NewBuffer(nil))
	root.SetArgs([]string{"crawl"})

	require.Error(t, root.Execute())
}

func TestCrawlFailsFastWithoutDSN(t *testing.T) {
	root := newRootCmd()
	root.SetOut(bytes.NewBuffer(nil))
	root.SetErr(bytes.NewBuffer(nil))
	root.SetArgs([]string{"crawl", "https://example.com"})

	err := root.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "dsn")
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)

	assert.Equal(t, dir, GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "config.yaml"), GetConfigFile())
}

func TestGetConfigDir_Default(t *testing.T) {
	t.Setenv(ConfigDirEnv, "")
	assert.Equal(t, "universal-extractor", filepath.Base(GetConfigDir()))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath(""))
	assert.NoError(t, ValidatePath("out/results"))

	err := ValidatePath("bad\x00path")
	if runtime.GOOS == "windows" {
		err = ValidatePath("bad|path")
	}
	var pathErr *PathValidationError
	assert.True(t, errors.As(err, &pathErr))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "", NormalizePath(""))
	assert.Equal(t, filepath.Join("a", "c"), NormalizePath("a/b/../c/"))
}

package io

import (
	"errors"

	"github.com/ezrec/rvm/translate"
)

var f = translate.From

var (
	// Console errors
	ErrConsoleNoInput  = errors.New(f("console has no input"))
	ErrConsoleNoOutput = errors.New(f("console has no output"))
)

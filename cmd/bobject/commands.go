// Copyright 2021 FerretDB Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FerretDB/bobject/internal/bson"
	"github.com/FerretDB/bobject/internal/extjson"
	"github.com/FerretDB/bobject/internal/jsonparse"
	"github.com/FerretDB/bobject/internal/jsontree"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// parseFlags represents flags shared by commands that parse JSON input.
//
//nolint:lll // some tags are long
type parseFlags struct {
	Lenient  bool `default:"false"                help:"Accept trailing commas, comments and unquoted keys."`
	MaxDepth int  `default:"${default_max_depth}" help:"Maximum nesting depth."`
	Stream   bool `default:"false"                help:"Accept a sequence of top-level values."`
}

// options returns parser options for flags.
func (f *parseFlags) options() *jsonparse.Options {
	opts := &jsonparse.Options{
		Flavor:   jsonparse.Strict,
		MaxDepth: f.MaxDepth,
	}

	if f.Lenient {
		opts.Flavor = jsonparse.Lenient
	}

	return opts
}

// values returns an iterator over parsed input values.
//
// Without --stream, input must contain exactly one value.
func (f *parseFlags) values(data []byte) (iterator.Interface[int, jsontree.Value], error) {
	if f.Stream {
		return jsonparse.NewValues(data, f.options()), nil
	}

	v, err := jsonparse.Parse(data, f.options())
	if err != nil {
		return nil, err
	}

	return iterator.ForSlice([]jsontree.Value{v}), nil
}

// render returns v as strict JSON, indented if indent is not empty.
func render(v jsontree.Value, indent string) []byte {
	if indent == "" {
		return jsontree.Render(v)
	}

	return jsontree.RenderIndent(v, "", indent)
}

type fmtCmd struct {
	Parse parseFlags `embed:""`

	File   string `arg:"" optional:"" default:"-" help:"Input file, '-' for stdin."`
	Indent string `default:""                     help:"Indentation; compact output if empty."`
}

// Run implements fmt command.
func (c *fmtCmd) Run(e *env) error {
	data, err := readInput(e, c.File)
	if err != nil {
		return err
	}

	iter, err := c.Parse.values(data)
	if err != nil {
		return err
	}

	values, err := iterator.ConsumeValues(iter)
	if err != nil {
		return err
	}

	for _, v := range values {
		if _, err = fmt.Fprintf(e.stdout, "%s\n", render(v, c.Indent)); err != nil {
			return lazyerrors.Error(err)
		}
	}

	return nil
}

type validateCmd struct {
	Parse parseFlags `embed:""`

	File string `arg:"" optional:"" default:"-" help:"Input file, '-' for stdin."`
}

// Run implements validate command.
//
// It prints the type of each valid value and stops at the first invalid one.
func (c *validateCmd) Run(e *env) error {
	data, err := readInput(e, c.File)
	if err != nil {
		return err
	}

	iter, err := c.Parse.values(data)
	if err != nil {
		return err
	}

	defer iter.Close()

	for {
		n, tree, err := iter.Next()
		if errors.Is(err, iterator.ErrIteratorDone) {
			return nil
		}

		if err != nil {
			return err
		}

		v, err := extjson.FromTree(tree)
		if err != nil {
			return fmt.Errorf("value %d: %w", n, err)
		}

		if _, err = fmt.Fprintf(e.stdout, "%d: %s\n", n, types.TypeOf(v)); err != nil {
			return lazyerrors.Error(err)
		}
	}
}

type bsonEncodeCmd struct {
	Parse parseFlags `embed:""`

	File string `arg:"" optional:"" default:"-" help:"Input file, '-' for stdin."`
}

// Run implements bson encode command.
func (c *bsonEncodeCmd) Run(e *env) error {
	data, err := readInput(e, c.File)
	if err != nil {
		return err
	}

	iter, err := c.Parse.values(data)
	if err != nil {
		return err
	}

	trees, err := iterator.ConsumeValues(iter)
	if err != nil {
		return err
	}

	for i, tree := range trees {
		v, err := extjson.FromTree(tree)
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}

		doc, ok := v.(*types.Document)
		if !ok {
			return fmt.Errorf("value %d: expected document, got %s", i, types.TypeOf(v))
		}

		b, err := bson.Encode(doc)
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}

		if _, err = fmt.Fprintln(e.stdout, hex.EncodeToString(b)); err != nil {
			return lazyerrors.Error(err)
		}
	}

	return nil
}

type bsonDecodeCmd struct {
	File     string `arg:"" optional:"" default:"-" help:"Input file with one hex document per line, '-' for stdin."`
	MaxDepth int    `default:"${default_max_depth}" help:"Maximum nesting depth."`
	Indent   string `default:""                     help:"Indentation; compact output if empty."`
}

// Run implements bson decode command.
func (c *bsonDecodeCmd) Run(e *env) error {
	data, err := readInput(e, c.File)
	if err != nil {
		return err
	}

	for i, line := range strings.Fields(string(data)) {
		b, err := hex.DecodeString(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}

		doc, err := bson.DecodeDepth(b, c.MaxDepth)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}

		var res []byte
		if c.Indent == "" {
			res, err = extjson.Marshal(doc)
		} else {
			res, err = extjson.MarshalIndent(doc, "", c.Indent)
		}

		if err != nil {
			return err
		}

		if _, err = fmt.Fprintf(e.stdout, "%s\n", res); err != nil {
			return lazyerrors.Error(err)
		}
	}

	return nil
}

type oidCmd struct {
	Count int      `default:"1"        help:"Number of ObjectIDs to generate."`
	IDs   []string `arg:"" optional:"" help:"ObjectIDs to print creation times of." name:"id"`
}

// Run implements oid command.
func (c *oidCmd) Run(e *env) error {
	if len(c.IDs) > 0 {
		for _, s := range c.IDs {
			id, err := types.ParseObjectID(s)
			if err != nil {
				return err
			}

			if _, err = fmt.Fprintf(e.stdout, "%s %s\n", id, id.Time().UTC().Format(time.RFC3339)); err != nil {
				return lazyerrors.Error(err)
			}
		}

		return nil
	}

	for range c.Count {
		if _, err := fmt.Fprintln(e.stdout, types.NewObjectID()); err != nil {
			return lazyerrors.Error(err)
		}
	}

	return nil
}

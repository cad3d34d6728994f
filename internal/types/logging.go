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

package types

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

const (
	// logFlowLimit is the maximum length of a composite value rendered on one line.
	logFlowLimit = 80

	// logDepthLimit is the maximum rendered nesting depth.
	logDepthLimit = 20
)

// slogValue returns a compact representation of v as slog.Value.
//
// It is lossy: all integers are KindInt64, and arrays become groups with index keys.
func slogValue(v Value, depth int) slog.Value {
	switch v := v.(type) {
	case *Document:
		if depth > logDepthLimit {
			return slog.StringValue("Document<...>")
		}

		attrs := make([]slog.Attr, len(v.fields))
		for i, f := range v.fields {
			attrs[i] = slog.Attr{Key: f.key, Value: slogValue(f.value, depth+1)}
		}

		return slog.GroupValue(attrs...)

	case *Array:
		if depth > logDepthLimit {
			return slog.StringValue("Array<...>")
		}

		attrs := make([]slog.Attr, len(v.s))
		for i, e := range v.s {
			attrs[i] = slog.Attr{Key: strconv.Itoa(i), Value: slogValue(e, depth+1)}
		}

		return slog.GroupValue(attrs...)

	case Double:
		// JSON handler can't encode those
		f := float64(v)
		switch {
		case math.IsNaN(f):
			return slog.StringValue("NaN")
		case math.IsInf(f, 1):
			return slog.StringValue("+Inf")
		case math.IsInf(f, -1):
			return slog.StringValue("-Inf")
		}

		return slog.Float64Value(f)

	case NullType:
		return slog.Value{}
	case Bool:
		return slog.BoolValue(bool(v))
	case Int32:
		return slog.Int64Value(int64(v))
	case Int64:
		return slog.Int64Value(int64(v))
	case String:
		return slog.StringValue(string(v))
	case Binary, ObjectID, Timestamp:
		return slog.StringValue(LogMessage(v))
	case DateTime:
		return slog.TimeValue(v.Time())
	default:
		panic(fmt.Sprintf("types.slogValue: invalid value %T", v))
	}
}

// LogMessage returns an indented representation of v for diagnostics,
// similar to extended JSON but keeping all type information.
//
// Short composites are rendered on one line.
// The format may change over time; never parse it.
func LogMessage(v Value) string {
	return logMessage(v, "", 1)
}

// logMessage returns LogMessage of v with the given indentation and depth.
func logMessage(v Value, indent string, depth int) string {
	var sb strings.Builder
	writeLogMessage(&sb, v, indent, depth)

	return sb.String()
}

// writeLogMessage writes LogMessage of v with the given indentation and depth.
func writeLogMessage(sb *strings.Builder, v Value, indent string, depth int) {
	switch v := v.(type) {
	case *Document:
		if len(v.fields) == 0 {
			sb.WriteString("{}")
			return
		}

		if depth > logDepthLimit {
			sb.WriteString("{...}")
			return
		}

		items := make([]string, len(v.fields))
		for i, f := range v.fields {
			items[i] = strconv.Quote(f.key) + ": " + logMessage(f.value, "", depth+1)
		}

		if flow := "{" + strings.Join(items, ", ") + "}"; len(flow) < logFlowLimit && !strings.Contains(flow, "\n") {
			sb.WriteString(flow)
			return
		}

		sb.WriteString("{\n")

		for _, f := range v.fields {
			sb.WriteString(indent + "  " + strconv.Quote(f.key) + ": ")
			writeLogMessage(sb, f.value, indent+"  ", depth+1)
			sb.WriteString(",\n")
		}

		sb.WriteString(indent + "}")

	case *Array:
		if len(v.s) == 0 {
			sb.WriteString("[]")
			return
		}

		if depth > logDepthLimit {
			sb.WriteString("[...]")
			return
		}

		items := make([]string, len(v.s))
		for i, e := range v.s {
			items[i] = logMessage(e, "", depth+1)
		}

		if flow := "[" + strings.Join(items, ", ") + "]"; len(flow) < logFlowLimit && !strings.Contains(flow, "\n") {
			sb.WriteString(flow)
			return
		}

		sb.WriteString("[\n")

		for _, e := range v.s {
			sb.WriteString(indent + "  ")
			writeLogMessage(sb, e, indent+"  ", depth+1)
			sb.WriteString(",\n")
		}

		sb.WriteString(indent + "]")

	case Double:
		f := float64(v)

		switch {
		case math.IsNaN(f):
			sb.WriteString("NaN")
		case math.IsInf(f, 1):
			sb.WriteString("+Inf")
		case math.IsInf(f, -1):
			sb.WriteString("-Inf")
		default:
			s := strconv.FormatFloat(f, 'g', -1, 64)
			if !strings.ContainsAny(s, ".eEn") {
				s += ".0"
			}

			sb.WriteString(s)
		}

	case NullType:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(bool(v)))
	case Int32:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Int64:
		sb.WriteString("int64(" + strconv.FormatInt(int64(v), 10) + ")")
	case String:
		sb.WriteString(strconv.Quote(string(v)))
	case Binary:
		sb.WriteString("Binary(" + v.subtype.String() + ":" + base64.StdEncoding.EncodeToString(v.b) + ")")
	case ObjectID:
		sb.WriteString("ObjectID(" + v.Hex() + ")")
	case DateTime:
		sb.WriteString(v.String())
	case Timestamp:
		sb.WriteString("Timestamp(" + strconv.FormatUint(uint64(v.T), 10) + ", " + strconv.FormatUint(uint64(v.I), 10) + ")")
	default:
		panic(fmt.Sprintf("types.writeLogMessage: invalid value %T", v))
	}
}

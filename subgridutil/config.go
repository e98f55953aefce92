/*
Copyright © 2026 the subgrid authors.
This file is part of subgrid.

subgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

subgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with subgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package subgridutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/flowmap/subgrid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// setLogLevel sets the minimum severity of logged messages.
func setLogLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("subgrid: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(l)
	return nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("subgrid: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}

// toIntSlice converts a slice option to integers. Flags and environment
// variables hold "[a,b]" or "a,b"; configuration files hold arrays.
func toIntSlice(v interface{}) ([]int, error) {
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return cast.ToIntSliceE(v)
	}
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return []int{}, nil
	}
	var o []int
	for _, f := range strings.Split(s, ",") {
		i, err := cast.ToIntE(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		o = append(o, i)
	}
	return o, nil
}

// checkWindow converts the Window configuration variable into a terrain
// window. An empty value returns nil, which selects the whole raster.
func checkWindow(v interface{}) (*subgrid.Window, error) {
	w, err := toIntSlice(v)
	if err != nil {
		return nil, fmt.Errorf("subgrid: invalid Window %v: %v", v, err)
	}
	if len(w) == 0 {
		return nil, nil
	}
	if len(w) != 4 {
		return nil, fmt.Errorf("subgrid: Window must have 4 values (row0,row1,col0,col1) but has %d", len(w))
	}
	if w[1] < w[0] || w[3] < w[2] {
		return nil, fmt.Errorf("subgrid: Window %v has a stop before its start", w)
	}
	return &subgrid.Window{RowStart: w[0], RowStop: w[1], ColStart: w[2], ColStop: w[3]}, nil
}

// settings returns the current value of every option except config,
// converted to the type of its default.
func settings() (map[string]interface{}, error) {
	o := make(map[string]interface{})
	for _, option := range options {
		if option.name == "config" {
			continue
		}
		switch option.defaultVal.(type) {
		case string:
			o[option.name] = Cfg.GetString(option.name)
		case bool:
			o[option.name] = Cfg.GetBool(option.name)
		case int:
			o[option.name] = Cfg.GetInt(option.name)
		case float64:
			o[option.name] = Cfg.GetFloat64(option.name)
		case []int:
			v, err := toIntSlice(Cfg.Get(option.name))
			if err != nil {
				return nil, fmt.Errorf("subgrid: invalid %s: %v", option.name, err)
			}
			if v == nil {
				v = []int{}
			}
			o[option.name] = v
		default:
			panic("invalid argument type")
		}
	}
	return o, nil
}

// WriteConfig writes the current configuration to w in TOML format.
// The output can be read back with the --config flag.
func WriteConfig(w io.Writer) error {
	s, err := settings()
	if err != nil {
		return err
	}
	if err = toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("subgrid: writing configuration: %v", err)
	}
	return nil
}

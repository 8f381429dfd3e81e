// Copyright 2020 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// package packs the files in static/ into static_files_gen.go.
package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"text/template"
)

type file struct {
	Name    string
	Content string
}

var tmpl = template.Must(template.New("tmpl").Parse(`// Automatically generated file. Do not edit!
// Generated with "go run package/main.go"

package main

var staticFiles = map[string]string{
{{range .}}	{{.Name}}: {{.Content}},
{{end}}}
`))

func mainImpl() error {
	var files []file
	err := filepath.Walk("static", func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, file{strconv.Quote(info.Name()), strconv.Quote(string(data))})
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	f, err := os.Create("static_files_gen.go")
	if err != nil {
		return err
	}
	defer f.Close()
	return tmpl.Execute(f, files)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\npackage: %s.\n", err)
		os.Exit(1)
	}
}

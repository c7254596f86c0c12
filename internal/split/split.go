package split

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/roach88/form/internal/syntax"
)

// DefaultRootFile is the name of the crate root file written to the base
// directory.
const DefaultRootFile = "lib.rs"

// RootModule is the module path recorded for the crate root file.
const RootModule = "crate"

// Options configures a Splitter.
type Options struct {
	// FS is the filesystem written to. Defaults to the OS filesystem.
	FS afero.Fs

	// Style selects how emitted files are printed.
	Style syntax.Style

	// RootFile is the crate root file name. Defaults to DefaultRootFile.
	RootFile string

	// Overwrite replaces existing files instead of failing with
	// ErrCodeConflict.
	Overwrite bool

	// Logger receives progress records. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Splitter turns a single source file with inline modules into a tree of
// files, one per module. A Splitter holds no per-run state and may be
// reused.
type Splitter struct {
	fs        afero.Fs
	style     syntax.Style
	rootFile  string
	overwrite bool
	logger    *slog.Logger
}

// New returns a Splitter for opts.
func New(opts Options) *Splitter {
	s := &Splitter{
		fs:        opts.FS,
		style:     opts.Style,
		rootFile:  opts.RootFile,
		overwrite: opts.Overwrite,
		logger:    opts.Logger,
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.rootFile == "" {
		s.rootFile = DefaultRootFile
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Report lists what a run wrote, in emission order.
type Report struct {
	BaseDir     string        `json:"base_dir"`
	RootFile    string        `json:"root_file"`
	Files       []EmittedFile `json:"files"`
	Directories []string      `json:"directories,omitempty"`
}

// EmittedFile is one file written by a run.
type EmittedFile struct {
	// Path is the file path, joined with the base directory.
	Path string `json:"path"`

	// Module is the module path (`a::b`), or RootModule for the root file.
	Module string `json:"module"`

	// PathAttr is the value of the path attribute on the module's
	// declaration, if it has one.
	PathAttr string `json:"path_attr,omitempty"`

	// Bytes is the size of the written content.
	Bytes int `json:"bytes"`
}

// ModuleCount returns the number of relocated modules, excluding the root.
func (r *Report) ModuleCount() int {
	n := 0
	for _, f := range r.Files {
		if f.Module != RootModule {
			n++
		}
	}
	return n
}

// Split parses src and writes its module tree under baseDir. filename is
// used for diagnostics only.
//
// The whole module tree is checked first: unsupported structure and two
// modules mapping to one file fail before anything is written, as does an
// existing root file. Files are then written as soon as each module's
// subtree is complete, so a conflict with an existing module file leaves
// the files written so far in place.
func (s *Splitter) Split(baseDir, filename, src string) (*Report, error) {
	r := &run{
		Splitter: s,
		report:   &Report{BaseDir: baseDir, RootFile: s.rootFile},
		planned:  make(map[string]string),
	}

	s.logger.Info("parsing input", "file", displayName(filename))
	file, err := syntax.Parse(filename, src)
	if err != nil {
		return nil, &Error{Code: ErrCodeParse, Op: "parse", Path: filename, Err: err}
	}
	s.logger.Info("finished parsing", "items", len(file.Items))

	rootPath := filepath.Join(baseDir, s.rootFile)
	if err := r.reserve(rootPath, RootModule); err != nil {
		return nil, err
	}
	if err := r.plan(file.Items, RootContext(baseDir)); err != nil {
		return nil, err
	}
	s.logger.Debug("planned module files", "files", len(r.planned))

	if err := r.ensureDir(baseDir); err != nil {
		return nil, err
	}
	s.logger.Info("prepared target directory", "dir", baseDir)

	if err := r.checkConflict(rootPath, RootModule); err != nil {
		return nil, err
	}

	root, err := syntax.FoldFile(&treeFolder{run: r, ctx: RootContext(baseDir)}, file)
	if err != nil {
		return r.report, err
	}
	if err := r.emit(rootPath, RootModule, "", root); err != nil {
		return r.report, err
	}
	s.logger.Info("split complete", "files", len(r.report.Files), "modules", r.report.ModuleCount())
	return r.report, nil
}

// CreateDirectoryStructure splits src into a module tree under baseDir on
// the OS filesystem with default options.
func CreateDirectoryStructure(baseDir, src string) error {
	_, err := New(Options{}).Split(baseDir, "", src)
	return err
}

// run carries the report of a single Split call.
type run struct {
	*Splitter
	report *Report

	// planned maps every destination of the run to the module written
	// there. Overwrite only ever replaces files that predate the run.
	planned map[string]string
}

// ensureDir creates dir and its parents. Existing directories are fine.
func (r *run) ensureDir(dir string) error {
	exists, err := afero.DirExists(r.fs, dir)
	if err != nil {
		return &Error{Code: ErrCodeFilesystem, Op: "stat directory", Path: dir, Err: err}
	}
	if exists {
		return nil
	}
	r.logger.Info("creating directory", "dir", dir)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return &Error{Code: ErrCodeFilesystem, Op: "create directory", Path: dir, Err: err}
	}
	r.report.Directories = append(r.report.Directories, dir)
	return nil
}

func (r *run) checkConflict(path, module string) error {
	if r.overwrite {
		return nil
	}
	exists, err := afero.Exists(r.fs, path)
	if err != nil {
		return &Error{Code: ErrCodeFilesystem, Op: "stat file", Path: path, Module: module, Err: err}
	}
	if exists {
		return &Error{Code: ErrCodeConflict, Op: "write file", Path: path, Module: module, Err: ErrFileExists}
	}
	return nil
}

// emit prints f and writes it to path.
func (r *run) emit(path, module, pathAttr string, f *syntax.File) error {
	if err := r.checkConflict(path, module); err != nil {
		return err
	}
	content := syntax.Print(f, r.style)

	flag := os.O_WRONLY | os.O_CREATE
	if r.overwrite {
		flag |= os.O_TRUNC
	} else {
		flag |= os.O_EXCL
	}
	r.logger.Debug("writing file", "path", path, "module", module)
	out, err := r.fs.OpenFile(path, flag, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &Error{Code: ErrCodeConflict, Op: "write file", Path: path, Module: module, Err: ErrFileExists}
		}
		return &Error{Code: ErrCodeFilesystem, Op: "create file", Path: path, Module: module, Err: err}
	}
	_, err = io.WriteString(out, content)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &Error{Code: ErrCodeFilesystem, Op: "write file", Path: path, Module: module, Err: err}
	}

	r.report.Files = append(r.report.Files, EmittedFile{
		Path:     path,
		Module:   module,
		PathAttr: pathAttr,
		Bytes:    len(content),
	})
	return nil
}

func displayName(filename string) string {
	if filename == "" {
		return "<stdin>"
	}
	return filename
}

package api

import "time"

// Options selects which rewrites run over a set of Astro files and how
// assets are fetched. JSON names match the config file keys.
type Options struct {
	// NetlifyForm marks forms for Netlify and inserts recaptcha placeholders.
	NetlifyForm bool `json:"netlify_form"`
	// Pictures converts raw <picture>/<img> markup into Picture/Image.
	Pictures bool `json:"pictures"`
	// PictureSrcString lifts literal src values into frontmatter bindings.
	PictureSrcString bool `json:"picture_src_string"`
	// SVG extracts inline <svg> markup into .svg files.
	SVG bool `json:"svg"`
	// ImageDir is where remote images are downloaded. Empty disables downloads.
	ImageDir string `json:"image_dir,omitempty"`

	// Concurrency is the number of files processed at once.
	Concurrency int `json:"concurrency"`
	// Timeout bounds a single download request.
	Timeout time.Duration `json:"timeout"`
	// Retries is the number of extra attempts for a failed download.
	Retries int `json:"retries"`
	// Manifest is the path of the SQLite download ledger (optional).
	Manifest string `json:"manifest,omitempty"`

	// Ext is the file extension processed when walking a directory.
	Ext string `json:"ext"`
	// DryRun computes rewrites without writing them.
	DryRun bool `json:"dry_run"`
}

// DefaultOptions returns the options used when neither a config file nor
// flags say otherwise.
func DefaultOptions() Options {
	return Options{
		Pictures:         true,
		PictureSrcString: true,
		Concurrency:      1,
		Timeout:          30 * time.Second,
		Retries:          2,
		Ext:              ".astro",
	}
}

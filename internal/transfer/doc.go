// Package transfer moves whole files between the local filesystem and
// ShareFile. Downloads are written to a .partial file, verified against the
// remote MD5 when one is known, and renamed into place atomically, so a
// failed download never touches the destination. Uploads open the local
// file once as an io.ReaderAt so every chunk can be re-read on retry.
package transfer

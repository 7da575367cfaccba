// Package storage writes harvested files to disk.
//
// Writes are atomic: data is streamed into a hidden temporary file in the
// destination directory and renamed into place only after the copy and
// close succeed. A failed write leaves no file behind, and a successful
// write silently replaces whatever was at the destination.
//
// Usage:
//
//	manager, err := storage.NewManager("data/raw")
//	if err != nil {
//	    return err
//	}
//
//	path, err := manager.Save(resp.Body, "photo.jpg")
package storage

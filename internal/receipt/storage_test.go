package receipt

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fuel-station/internal/station"
)

var _ = Describe("LocalStorage", func() {
	var (
		ctx     context.Context
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			filename  string
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "receipt-1.jpg"
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(ctx, filename, []byte("test file content"))
		})

		When("saving succeeds", func() {
			It("should return the stored name", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal(filename))
			})

			It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, filename)).To(BeAnExistingFile())
			})
		})

		When("the name escapes the uploads directory", func() {
			BeforeEach(func() {
				filename = "../outside.jpg"
			})

			It("refuses to save", func() {
				Expect(err).To(MatchError(ContainSubstring("invalid image name")))
				Expect(filepath.Join(tmpDir, "..", "outside.jpg")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		var (
			filename string
			data     []byte
			err      error
		)

		JustBeforeEach(func() {
			data, err = storage.Get(ctx, filename)
		})

		When("file exists", func() {
			BeforeEach(func() {
				filename = "receipt-1.jpg"
				_, saveErr := storage.Save(ctx, filename, []byte("test file content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should return the file data", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("test file content"))
			})
		})

		When("file does not exist", func() {
			BeforeEach(func() {
				filename = "nonexistent.jpg"
			})

			It("returns ErrNotFound", func() {
				Expect(errors.Is(err, station.ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("Delete", func() {
		var (
			filename string
			err      error
		)

		JustBeforeEach(func() {
			err = storage.Delete(ctx, filename)
		})

		When("file exists", func() {
			BeforeEach(func() {
				filename = "receipt-1.jpg"
				_, saveErr := storage.Save(ctx, filename, []byte("test content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should remove the file from disk", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(filepath.Join(tmpDir, filename)).NotTo(BeAnExistingFile())
			})
		})

		When("file does not exist", func() {
			BeforeEach(func() {
				filename = "nonexistent.jpg"
			})

			It("returns ErrNotFound", func() {
				Expect(errors.Is(err, station.ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("NewLocalStorage", func() {
		It("creates a missing directory", func() {
			storagePath := filepath.Join(GinkgoT().TempDir(), "uploads")
			_, err := NewLocalStorage(storagePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(storagePath).To(BeADirectory())
		})
	})
})

package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func pngFixture() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("parseModelAnswer", func() {
	var (
		answer string
		result *Result
		err    error
	)

	JustBeforeEach(func() {
		result, err = parseModelAnswer(answer)
	})

	When("the answer has text around the JSON", func() {
		BeforeEach(func() {
			answer = `Here you go: {"results":[{"data":{"PRINT DATE":"01/05/2025"},"ocr_text":"x"}]} done`
		})

		It("extracts the object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Recognitions).To(HaveLen(1))
			Expect(result.Recognitions[0].Fields.PrintDate.String()).To(Equal("01/05/2025"))
		})
	})

	When("the answer has no JSON", func() {
		BeforeEach(func() {
			answer = "I cannot read this image"
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("no JSON object")))
		})
	})

	When("a value is an object", func() {
		BeforeEach(func() {
			answer = `{"results":[{"data":{"PRINT DATE":{"day":1}}}]}`
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("promptFor", func() {
	It("asks for several receipts only when splitting", func() {
		Expect(promptFor(true)).To(ContainSubstring(splitInstruction))
		Expect(promptFor(false)).To(ContainSubstring(singleInstruction))
	})
})

var _ = Describe("toPNG", func() {
	It("returns PNG data unchanged", func() {
		data := pngFixture()
		out, err := toPNG(data, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(data))
	})

	It("converts GIF to PNG", func() {
		img := image.NewPaletted(image.Rect(0, 0, 2, 2), []color.Color{color.Black, color.White})
		var buf bytes.Buffer
		Expect(gif.Encode(&buf, img, nil)).To(Succeed())

		out, err := toPNG(buf.Bytes(), "image/gif")
		Expect(err).NotTo(HaveOccurred())
		_, format, decodeErr := image.Decode(bytes.NewReader(out))
		Expect(decodeErr).NotTo(HaveOccurred())
		Expect(format).To(Equal("png"))
	})

	It("rejects data that is not an image", func() {
		_, err := toPNG([]byte("not an image"), "image/jpeg")
		Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
	})
})

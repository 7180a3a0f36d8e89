package ocr

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Gemini", func() {
	Describe("NewGemini", func() {
		It("requires an API key", func() {
			gw, err := NewGemini(context.Background(), "", "")
			Expect(err).To(MatchError("gemini api key is required"))
			Expect(gw).To(BeNil())
		})

		It("falls back to the default model", func() {
			gw, err := NewGemini(context.Background(), "test-key", "")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(gw.Close)
			Expect(gw.model.Name()).To(HaveSuffix(DefaultGeminiModel))
		})
	})

	Describe("Recognize", func() {
		It("fails before calling the API when the image cannot be read", func() {
			gw, err := NewGemini(context.Background(), "test-key", "gemini-test")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(gw.Close)

			_, err = gw.Recognize(context.Background(), Image{Data: []byte("not an image"), ContentType: "image/jpeg"}, true)
			var failure *Failure
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.Reason).To(Equal("could not prepare image"))
		})
	})

	Describe("reading the answer", func() {
		answer := func(parts ...genai.Part) *genai.GenerateContentResponse {
			return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Role: "model", Parts: parts}},
			}}
		}

		It("joins the text parts of the first candidate", func() {
			result, err := geminiResult(answer(
				genai.Text("```json\n{\"results\": [{\"data\": {\"PUMP SERIAL NUMBER\": "),
				genai.Blob{MIMEType: "image/png", Data: []byte("ignored")},
				genai.Text("\"PS002\", \"NOZZLES\": []}, \"ocr_text\": \"raw\"}]}\n```"),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Recognitions).To(HaveLen(1))
			Expect(result.Recognitions[0].Fields.PumpSerialNumber.String()).To(Equal("PS002"))
			Expect(result.Recognitions[0].RawText).To(Equal("raw"))
		})

		DescribeTable("reports an empty answer",
			func(resp *genai.GenerateContentResponse) {
				_, err := geminiResult(resp)
				var failure *Failure
				Expect(errors.As(err, &failure)).To(BeTrue())
				Expect(failure.Reason).To(Equal("no response from gemini"))
			},
			Entry("no response", nil),
			Entry("no candidates", &genai.GenerateContentResponse{}),
			Entry("no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}),
			Entry("no parts", answer()),
		)

		It("reports an answer without JSON", func() {
			_, err := geminiResult(answer(genai.Text("I cannot read this receipt")))
			var failure *Failure
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.Reason).To(Equal("malformed gemini response"))
		})
	})
})

package ocr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// receiptPrompt is the prompt shared by the LLM backends. It asks for the same JSON the OCR
// microservice returns so both decode through the same types.
const receiptPrompt = `You are reading a photo of one or more fuel pump shift receipts. %s

For each receipt extract:
- "PRINT DATE": the print date and time exactly as printed
- "PUMP SERIAL NUMBER": the pump or machine serial number
- "EMPLOYEE_NAME", "EMPLOYEE_ID", "SHIFT_TIME": if printed, otherwise ""
- "NOZZLES": one object per nozzle, in printed order, with "NOZZLE" (nozzle number), "A" (amount),
  "V" (volume) and "TOT SALES" (total sales), each copied as printed

Also include the full text you read from that receipt as "ocr_text".

Return ONLY valid JSON in this exact format:
{
  "results": [
    {
      "data": {
        "PRINT DATE": "",
        "PUMP SERIAL NUMBER": "",
        "EMPLOYEE_NAME": "",
        "EMPLOYEE_ID": "",
        "SHIFT_TIME": "",
        "NOZZLES": [{"NOZZLE": "", "A": "", "V": "", "TOT SALES": ""}]
      },
      "ocr_text": ""
    }
  ]
}

Do not include any text before or after the JSON. Do not use markdown code blocks.`

const (
	splitInstruction  = "The photo may contain several receipts side by side; return one result per receipt."
	singleInstruction = "Treat the photo as a single receipt and return exactly one result."
)

func promptFor(split bool) string {
	if split {
		return fmt.Sprintf(receiptPrompt, splitInstruction)
	}
	return fmt.Sprintf(receiptPrompt, singleInstruction)
}

// parseModelAnswer extracts the recognition JSON from an LLM answer
func parseModelAnswer(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var wire wireResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &wire); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	if wire.Error != "" && len(wire.Results) == 0 {
		return nil, fmt.Errorf("model reported: %s", wire.Error)
	}

	return wire.result(), nil
}

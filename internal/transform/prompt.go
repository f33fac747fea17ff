package transform

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/proshot/internal/studio"
)

const preserveIdentity = "Keep the person's face, facial structure, skin tone, hairstyle, and identity exactly as in the input photo. Do not beautify or alter their features."

// Prompt builds the edit instruction sent alongside the source image.
func Prompt(mode studio.Mode, opts studio.Options) string {
	var b strings.Builder

	switch mode {
	case studio.ModePassport:
		b.WriteString("Transform this photo into an official passport / ID photo. ")
		b.WriteString("Frame the head and top of the shoulders, centered and facing the camera, with a neutral expression and both eyes open. ")
		b.WriteString("Use even, shadow-free studio lighting. ")
		fmt.Fprintf(&b, "Replace the background with a flat, uniform version of %s, with no texture or objects. ", opts.Background)
		fmt.Fprintf(&b, "Dress the person in %s. ", opts.Attire)
	default:
		b.WriteString("Transform this photo into a high-end corporate headshot taken in a professional studio. ")
		b.WriteString("Frame from the chest up with soft, flattering key light and a natural, confident expression. ")
		fmt.Fprintf(&b, "Place the person in front of %s. ", opts.Background)
		fmt.Fprintf(&b, "Dress the person in %s. ", opts.Attire)
	}

	b.WriteString(preserveIdentity)
	b.WriteString(" Return only the edited image.")

	return b.String()
}

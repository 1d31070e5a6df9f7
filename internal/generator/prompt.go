package generator

import (
	"fmt"
	"strings"
)

// BuildCasePrompt assembles the generation instruction. The model must
// answer with a single JSON object and nothing else; parsing depends
// on it.
func BuildCasePrompt(params CaseParams) string {
	theme := params.Theme
	if theme == "" {
		theme = "temas de trabajo social general"
	}
	difficulty := strings.ToLower(params.Difficulty)
	if difficulty == "" {
		difficulty = "basico"
	}

	var b strings.Builder
	b.WriteString("Genera un caso clínico educativo para estudiantes de Trabajo Social. ")
	fmt.Fprintf(&b, "Tema: %s. Nivel de dificultad: %s.\n", theme, difficulty)

	if params.AgeGroup != "" {
		fmt.Fprintf(&b, "Grupo etario de la persona usuaria: %s.\n", params.AgeGroup)
	}
	if params.Context != "" {
		fmt.Fprintf(&b, "Contexto de intervención: %s.\n", params.Context)
	}
	if params.FocusArea != "" {
		fmt.Fprintf(&b, "Área de enfoque: %s.\n", params.FocusArea)
	}
	if params.Competency != "" {
		fmt.Fprintf(&b, "Competencia profesional a ejercitar: %s.\n", params.Competency)
	}
	switch params.CaseLength {
	case "corto":
		b.WriteString("Extensión de la descripción: breve, uno o dos párrafos.\n")
	case "largo":
		b.WriteString("Extensión de la descripción: extensa, cuatro o más párrafos con antecedentes detallados.\n")
	case "medio", "":
		b.WriteString("Extensión de la descripción: media, dos o tres párrafos.\n")
	}

	b.WriteString(
		"Entrega la respuesta estrictamente en JSON con las siguientes claves: " +
			"'case_id' (string corto), 'title' (string), 'eje' (string), 'nivel' (string), " +
			"'description' (texto del caso), 'learning_objectives' (array de strings), " +
			"'questions' (array de objetos con 'question' (string), 'options' (array de strings, " +
			"omitir para preguntas abiertas), 'correct_index' (entero, indice de la opcion correcta, " +
			"omitir para preguntas abiertas) y 'justification' (string)).\n" +
			"Incluye entre 3 y 5 preguntas, mezclando opcion multiple y al menos una pregunta abierta.\n" +
			"No incluyas texto adicional fuera del JSON.")

	return b.String()
}

package handlers

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"mockupstudio/internal/batch"
	"mockupstudio/internal/domain"
	"mockupstudio/internal/middleware"
)

// Error codes returned by the API besides the domain validation codes.
const (
	CodeBadRequest        = "bad_request"
	CodeBodyTooLarge      = "body_too_large"
	CodeUnauthorized      = "unauthorized"
	CodeSessionClosed     = "session_closed"
	CodeAlreadyRunning    = "already_running"
	CodeNotFound          = "not_found"
	CodeMissingCredential = "missing_credential"
	CodeCleanFailed       = "clean_failed"
	CodeBatchRunning      = "batch_running"
	CodeNothingToArchive  = "nothing_to_archive"
	CodeCancelled         = "cancelled"
	CodeInternal          = "internal"
)

var messages = map[string][2]string{ // code: {pt, en}
	domain.CodeMissingDesign:     {"Envie uma arte antes de gerar os mockups.", "Upload a design before generating mockups."},
	domain.CodeNoProducts:        {"Selecione pelo menos um produto.", "Select at least one product."},
	domain.CodeBatchTooLarge:     {"O lote excede o limite de mockups permitido.", "The batch exceeds the allowed number of mockups."},
	domain.CodeInvalidVariations: {"A quantidade de variações deve ser pelo menos 1.", "The variation count must be at least 1."},
	domain.CodeDuplicateProduct:  {"Um produto foi selecionado mais de uma vez.", "A product was selected more than once."},
	domain.CodeInvalidMode:       {"Modo de renderização inválido.", "Invalid render mode."},
	domain.CodeInvalidInput:      {"Dados inválidos na solicitação.", "The request contains invalid data."},
	CodeBadRequest:               {"Não foi possível ler a solicitação.", "The request could not be read."},
	CodeBodyTooLarge:             {"Arquivo muito grande.", "The upload is too large."},
	CodeUnauthorized:             {"Faça login para continuar.", "Sign in to continue."},
	CodeSessionClosed:            {"Sua sessão foi encerrada. Entre novamente.", "Your session has ended. Sign in again."},
	CodeAlreadyRunning:           {"Já existe um lote em andamento.", "A batch is already running."},
	CodeNotFound:                 {"Não encontrado.", "Not found."},
	CodeMissingCredential:        {"Não é possível gerar: a chave da API não está configurada.", "Cannot generate: the API key is not configured."},
	CodeCleanFailed:              {"Não foi possível limpar a arte. Tente outra imagem.", "The design could not be cleaned. Try another image."},
	CodeBatchRunning:             {"O lote ainda está em andamento.", "The batch is still running."},
	CodeNothingToArchive:         {"Nenhum mockup disponível para download.", "No mockups are available to download."},
	CodeCancelled:                {"Solicitação cancelada.", "The request was cancelled."},
	CodeInternal:                 {"Erro inesperado. Tente novamente.", "Unexpected error. Please try again."},
	batch.MsgNoResults:           {"Nenhum mockup pôde ser gerado.", "No mockup could be generated."},
	batch.MsgUnexpected:          {"Erro inesperado ao gerar os mockups.", "Unexpected error while generating mockups."},
	batch.MsgCancelled:           {"Lote cancelado.", "Batch cancelled."},
	batch.MsgMissingCredential:   {"Não é possível gerar: a chave da API não está configurada.", "Cannot generate: the API key is not configured."},
}

var printers = buildPrinters()

func buildPrinters() map[string]*message.Printer {
	b := catalog.NewBuilder(catalog.Fallback(language.Portuguese))
	for key, text := range messages {
		_ = b.SetString(language.Portuguese, key, text[0])
		_ = b.SetString(language.English, key, text[1])
	}
	return map[string]*message.Printer{
		middleware.LocalePT: message.NewPrinter(language.Portuguese, message.Catalog(b)),
		middleware.LocaleEN: message.NewPrinter(language.English, message.Catalog(b)),
	}
}

// Message returns the localized text for key. Unknown keys come back as is.
func Message(locale, key string) string {
	p, ok := printers[locale]
	if !ok {
		p = printers[middleware.LocalePT]
	}
	return p.Sprintf(key)
}

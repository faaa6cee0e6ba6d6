package util

import "errors"

var (
	ErrUserNotFound         = errors.New("usuário não encontrado")
	ErrEmailRegistered      = errors.New("Email já cadastrado")
	ErrInvalidCredentials   = errors.New("Credenciais inválidas")
	ErrMissingCredentials   = errors.New("Campos obrigatórios")
	ErrPermissionDenied     = errors.New("Acesso negado")
	ErrQuestionNotFound     = errors.New("Questão não encontrada")
	ErrContentNotFound      = errors.New("Conteúdo não encontrado")
	ErrInvalidContentType   = errors.New("tipo de conteúdo inválido")
	ErrInvalidContentParent = errors.New("pai incompatível com o tipo do conteúdo")
	ErrExamBoardNotFound    = errors.New("Banca não encontrada")
	ErrNameRequired         = errors.New("Nome é obrigatório")
	ErrInvalidField         = errors.New("Invalid field")
	ErrEmptyQuestionIDs     = errors.New("question_ids deve ser uma lista não vazia")
	ErrQuestionsNotFound    = errors.New("Nenhuma questão encontrada")
	ErrInvalidFileType      = errors.New("tipo de arquivo inválido")
)

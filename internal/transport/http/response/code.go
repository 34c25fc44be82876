package response

import "net/http"

// 面向用户的固定文案
const (
	MsgNoToken          = "Acesso negado. Token não fornecido."
	MsgInvalidToken     = "Token inválido"
	MsgUserNotFound     = "Usuário não encontrado"
	MsgForbiddenRole    = "Sem permissão para acessar esta rota"
	MsgLoginRequired    = "Email e senha são obrigatórios"
	MsgBadCredentials   = "Credenciais inválidas"
	MsgUserDeleted      = "Usuário deletado com sucesso"
	MsgPostNotFound     = "Post não encontrado"
	MsgCannotUpdatePost = "Não autorizado a atualizar este post"
	MsgCannotDeletePost = "Não autorizado a deletar este post"
	MsgHealthy          = "API funcionando!"
	MsgInternal         = "Erro interno do servidor"
	MsgTooManyRequests  = "Muitas requisições, tente novamente mais tarde"
	MsgServerBusy       = "Servidor ocupado, tente novamente mais tarde"
	MsgBodyTooLarge     = "Corpo da requisição excede o limite permitido"
	MsgTimeout          = "Tempo limite da requisição excedido"
)

// CodeMsgMap 状态码的默认文案
var CodeMsgMap = map[int]string{
	http.StatusBadRequest:            "Requisição inválida",
	http.StatusUnauthorized:          MsgInvalidToken,
	http.StatusForbidden:             MsgForbiddenRole,
	http.StatusNotFound:              "Recurso não encontrado",
	http.StatusRequestEntityTooLarge: MsgBodyTooLarge,
	http.StatusTooManyRequests:       MsgTooManyRequests,
	http.StatusInternalServerError:   MsgInternal,
	http.StatusServiceUnavailable:    MsgServerBusy,
	http.StatusGatewayTimeout:        MsgTimeout,
}

func RouteNotFound(url string) string { return "Rota " + url + " não encontrada" }

func InvalidID(id string) string { return "ID inválido: " + id }

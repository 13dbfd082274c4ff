package roomhandler

type GenerateResponse struct {
	Code string `json:"code" example:"AB3K9"`
} // @name GenerateResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type CodePath struct {
	Code string `uri:"code" binding:"required"`
} // @name CodePath

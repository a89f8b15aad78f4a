package auth

// Claims es lo que el verificador extrae del token.
// Principal es la identidad opaca que el registro usa como dueño/destinatario.
type Claims struct {
	Principal string
	Email     string
}

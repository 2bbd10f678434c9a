package constant

const (
	WHATSAPP_CONNECTED    = "WhatsApp connected successfully"
	WHATSAPP_DISCONNECTED = "WhatsApp disconnected successfully"
	WHATSAPP_PAIRED       = "WhatsApp is already paired"
	MESSAGE_SENT          = "Message sent successfully"
	MESSAGE_READ          = "Message marked as read"
	QR_CODE_GENERATED     = "QR code generated successfully"
	STATUS_RETRIEVED      = "Status retrieved successfully"
	CONTACTS_RETRIEVED    = "Contacts retrieved successfully"
	CHATS_RETRIEVED       = "Chats retrieved successfully"
	CHAT_MODIFIED         = "Chat updated successfully"
	WEBHOOK_UPDATED       = "Webhook updated successfully"
	CONNECTION_UPDATED    = "Connection settings updated successfully"
	GATEWAY_UPDATED       = "Gateway credentials updated successfully"

	WHATSAPP_NOT_CONNECTED = "WhatsApp client not connected"
	INVALID_PHONE_NUMBER   = "Invalid phone number format"
	PHONE_IN_USE           = "phone number %s is already in use"
	PAIRING_FAILED         = "unable to generate QR code: %s"
)

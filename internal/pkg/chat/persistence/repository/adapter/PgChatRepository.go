package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/domain"
	port "github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/pkg/chat/persistence/repository/port"
)

// PgChatRepository implements the chat repository port on top of a pgx pool.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

// Ensure interface compliance at compile time
var _ port.ChatRepository = (*PgChatRepository)(nil)

const conversationColumns = `id, buyer_id, supplier_id, product_id, subject, status, created_at, updated_at, last_activity_at`

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	var c chat.Conversation
	err := row.Scan(&c.ID, &c.BuyerID, &c.SupplierID, &c.ProductID, &c.Subject,
		&c.Status, &c.CreatedAt, &c.UpdatedAt, &c.LastActivityAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id int64) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM chat.conversation WHERE id = $1`, id)
	return scanConversation(row)
}

// FindOrCreateConversation resolves the (buyer, supplier, product) tuple to a
// single row. The insert uses ON CONFLICT DO NOTHING against the tuple's
// unique index; when a concurrent creator wins the race we fall back to
// re-reading the winning row instead of surfacing the conflict.
func (r *PgChatRepository) FindOrCreateConversation(ctx context.Context, c chat.Conversation) (*chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return nil, false, errors.New("PgChatRepository: nil pool")
	}

	selectByTuple := `SELECT ` + conversationColumns + `
		FROM chat.conversation
		WHERE buyer_id = $1 AND supplier_id = $2 AND product_id IS NOT DISTINCT FROM $3`

	existing, err := scanConversation(r.pool.QueryRow(ctx, selectByTuple, c.BuyerID, c.SupplierID, c.ProductID))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, chat.ErrConversationNotFound) {
		return nil, false, err
	}

	inserted, err := scanConversation(r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (buyer_id, supplier_id, product_id, subject, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (buyer_id, supplier_id, COALESCE(product_id, 0)) DO NOTHING
		RETURNING `+conversationColumns,
		c.BuyerID, c.SupplierID, c.ProductID, c.Subject, chat.StatusOpen))
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, chat.ErrConversationNotFound) {
		return nil, false, err
	}

	// Lost the race: the conflicting row exists now, read it.
	winner, err := scanConversation(r.pool.QueryRow(ctx, selectByTuple, c.BuyerID, c.SupplierID, c.ProductID))
	if err != nil {
		return nil, false, err
	}
	return winner, false, nil
}

func (r *PgChatRepository) ListConversations(ctx context.Context, userID int64) ([]chat.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.buyer_id, c.supplier_id, c.product_id, c.subject, c.status,
		       c.created_at, c.updated_at, c.last_activity_at,
		       COUNT(m.id) FILTER (WHERE m.is_read = FALSE AND m.is_deleted = FALSE AND m.sender_id <> $1) AS unread_count,
		       COALESCE((
		           SELECT lm.body FROM chat.message lm
		           WHERE lm.conversation_id = c.id AND lm.is_deleted = FALSE
		           ORDER BY lm.created_at DESC, lm.id DESC LIMIT 1
		       ), '') AS last_message
		FROM chat.conversation c
		LEFT JOIN chat.message m ON m.conversation_id = c.id
		WHERE c.buyer_id = $1 OR c.supplier_id = $1
		GROUP BY c.id
		ORDER BY c.last_activity_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.ConversationSummary
	for rows.Next() {
		var s chat.ConversationSummary
		if err := rows.Scan(&s.ID, &s.BuyerID, &s.SupplierID, &s.ProductID, &s.Subject, &s.Status,
			&s.CreatedAt, &s.UpdatedAt, &s.LastActivityAt, &s.UnreadCount, &s.LastMessage); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveMessage inserts the message and bumps the conversation's recency inside
// one transaction so a persisted message and a stale last_activity_at can
// never coexist.
func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var attURL, attName, attMime *string
	var attSize *int64
	if m.Attachment != nil {
		attURL, attName, attMime = &m.Attachment.URL, &m.Attachment.Name, &m.Attachment.MimeType
		attSize = &m.Attachment.Size
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, sender_id, body, msg_type,
		                          attachment_url, attachment_name, attachment_size, attachment_mime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, m.ConversationID, m.SenderID, m.Body, m.Type, attURL, attName, attSize, attMime).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	ct, err := tx.Exec(ctx, `
		UPDATE chat.conversation
		SET last_activity_at = $2, updated_at = $2
		WHERE id = $1
	`, m.ConversationID, m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, chat.ErrConversationNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessagesByConversation pages newest-first internally and reverses the
// batch so callers always see chronological order.
func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, body, msg_type,
		       attachment_url, attachment_name, attachment_size, attachment_mime,
		       is_read, created_at
		FROM chat.message
		WHERE conversation_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var (
			m       chat.Message
			attURL  *string
			attName *string
			attMime *string
			attSize *int64
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.Type,
			&attURL, &attName, &attSize, &attMime, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		if attURL != nil {
			m.Attachment = &chat.Attachment{URL: *attURL}
			if attName != nil {
				m.Attachment.Name = *attName
			}
			if attSize != nil {
				m.Attachment.Size = *attSize
			}
			if attMime != nil {
				m.Attachment.MimeType = *attMime
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse to chronological
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkMessagesRead flips unread messages not authored by readerID in a single
// bulk statement and reports the ids that changed.
func (r *PgChatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID int64, messageIDs []int64) ([]int64, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	query := `
		UPDATE chat.message
		SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2
		  AND is_read = FALSE AND is_deleted = FALSE`
	args := []any{conversationID, readerID}
	if len(messageIDs) > 0 {
		query += ` AND id = ANY($3)`
		args = append(args, messageIDs)
	}
	query += ` RETURNING id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgChatRepository) SoftDeleteMessage(ctx context.Context, conversationID, messageID, senderID int64) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET is_deleted = TRUE
		WHERE id = $1 AND conversation_id = $2 AND sender_id = $3
	`, messageID, conversationID, senderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	// Distinguish "not yours" from "not there".
	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat.message WHERE id = $1 AND conversation_id = $2)`,
		messageID, conversationID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return chat.ErrRoleForbidden
	}
	return chat.ErrMessageNotFound
}

func (r *PgChatRepository) UpdateConversationStatus(ctx context.Context, conversationID int64, status chat.ConversationStatus) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.conversation
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, conversationID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

func (r *PgChatRepository) SaveNotification(ctx context.Context, n chat.Notification) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.notification (recipient_id, message_id, preview)
		VALUES ($1, $2, $3)
		ON CONFLICT (recipient_id, message_id) DO NOTHING
	`, n.RecipientID, n.MessageID, n.Preview)
	return err
}

package build

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// SSHKey is a public key installed on a server at build time.
type SSHKey struct {
	ID          int64  `json:"id" yaml:"id"`
	Type        string `json:"type" yaml:"type"`
	Key         string `json:"key" yaml:"key"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// AuthorizedKey returns the key in authorized_keys format.
func (k *SSHKey) AuthorizedKey() string {
	if k.Comment == "" {
		return k.Key
	}
	return k.Key + " " + k.Comment
}

// AddSSHKey parses an authorized_keys line and stores the key for the
// server. Options preceding the key are dropped.
func (s *Service) AddSSHKey(ctx context.Context, server, authorizedKey string) (*SSHKey, error) {
	server = strings.ToLower(strings.TrimSpace(server))
	pk, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(authorizedKey))
	if err != nil {
		return nil, fmt.Errorf("invalid ssh key for %s: %w", server, err)
	}
	key := &SSHKey{
		Type:        pk.Type(),
		Key:         strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pk))),
		Comment:     strings.TrimSpace(comment),
		Fingerprint: ssh.FingerprintSHA256(pk),
	}

	serverID, err := s.serverID(ctx, server)
	if err != nil {
		return nil, err
	}
	existing, err := s.sshKeys(ctx, server, serverID)
	if err != nil {
		return nil, err
	}
	for _, k := range existing {
		if k.Key == key.Key {
			return nil, fmt.Errorf("ssh key %s on %s: %w", key.Fingerprint, server, store.ErrExists)
		}
	}

	if _, err := s.db.Write(ctx, query.Insert, query.InsertSSHKey,
		value.BigInt(serverID), value.Text(key.Type), value.Text(key.Key), value.Text(key.Comment), s.now()); err != nil {
		return nil, fmt.Errorf("failed to add ssh key to %s: %w", server, err)
	}
	log.Printf("Added %s key %s to %s", key.Type, key.Fingerprint, server)
	return key, nil
}

// SSHKeys lists the keys stored for the server.
func (s *Service) SSHKeys(ctx context.Context, server string) ([]SSHKey, error) {
	server = strings.ToLower(strings.TrimSpace(server))
	serverID, err := s.serverID(ctx, server)
	if err != nil {
		return nil, err
	}
	return s.sshKeys(ctx, server, serverID)
}

func (s *Service) sshKeys(ctx context.Context, server string, serverID int64) ([]SSHKey, error) {
	rows, err := s.rows(ctx, query.Argument, query.SSHKeysOnServer, value.BigInt(serverID))
	if err != nil {
		return nil, fmt.Errorf("failed to list ssh keys of %s: %w", server, err)
	}
	out := make([]SSHKey, 0, len(rows))
	for _, r := range rows {
		k := SSHKey{
			ID:      value.ToInt(r[0]),
			Type:    value.ToString(r[1]),
			Key:     value.ToString(r[2]),
			Comment: value.ToString(r[3]),
		}
		if pk, _, _, _, err := ssh.ParseAuthorizedKey([]byte(k.Key)); err == nil {
			k.Fingerprint = ssh.FingerprintSHA256(pk)
		}
		out = append(out, k)
	}
	return out, nil
}

// RemoveSSHKey deletes key id from the server.
func (s *Service) RemoveSSHKey(ctx context.Context, server string, id int64) error {
	server = strings.ToLower(strings.TrimSpace(server))
	serverID, err := s.serverID(ctx, server)
	if err != nil {
		return err
	}
	n, err := s.db.Write(ctx, query.Delete, query.DeleteSSHKeyOnID, value.BigInt(id), value.BigInt(serverID))
	if err != nil {
		return fmt.Errorf("failed to remove ssh key %d from %s: %w", id, server, err)
	}
	if n == 0 {
		return fmt.Errorf("ssh key %d on %s: %w", id, server, store.ErrNotFound)
	}
	return nil
}

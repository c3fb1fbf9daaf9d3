package template

import "context"

// Repository はテンプレート永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, tpl *Template) (*Template, error)
	Update(ctx context.Context, tpl *Template) (*Template, error)
	FindByID(ctx context.Context, id string) (*Template, error)
	// FindActive は組織と役割に対する ACTIVE なテンプレートを返します。
	// 存在しない場合は ErrNoActiveTemplate を返します。
	FindActive(ctx context.Context, tenant string, organizationNumber int, role RoleType) (*Template, error)
	// FindVersions は同一名の全バージョンを新しい順に返します。
	FindVersions(ctx context.Context, tenant, name string) ([]*Template, error)
	List(ctx context.Context, tenant string) ([]*Template, error)
}

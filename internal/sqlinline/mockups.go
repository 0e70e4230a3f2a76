package sqlinline

const QEnsureMockupSchema = `--sql 18f410c5-0e85-4fe7-9294-215cbfb51635
create table if not exists generated_mockups (
    id uuid primary key,
    user_id text not null,
    image_data bytea not null,
    mime_type text not null default 'image/png',
    category text not null,
    original_filename text not null default '',
    created_at timestamptz not null default now()
);
create index if not exists generated_mockups_user_created_idx
    on generated_mockups (user_id, created_at desc);
create table if not exists integration_tokens (
    id uuid primary key,
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QInsertMockup = `--sql 76374bc5-c9af-41e1-a0d7-ecd29a39741c
insert into generated_mockups (id, user_id, image_data, mime_type, category, original_filename, created_at)
values ($1::uuid, $2::text, $3::bytea, $4::text, $5::text, $6::text, now())
returning created_at;
`

const QListMockupsByUser = `--sql 9cf3ead5-a3ee-49aa-83b3-dddb821d9d4f
select id::text, user_id, image_data, mime_type, category, original_filename, created_at
from generated_mockups
where user_id = $1::text
order by created_at desc, id desc;
`

const QDeleteMockupsByUser = `--sql 48160ed0-4239-4eff-b233-32ab93fd8591
delete from generated_mockups
where user_id = $1::text;
`
